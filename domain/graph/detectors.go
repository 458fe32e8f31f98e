package graph

import (
	"fmt"
	"strings"

	"github.com/sourcelore/sourcelore/domain/entity"
)

// DefaultDetectors returns one Detector per pattern family named in C4:
// creational, structural, behavioral, architectural, DDD, microservices.
// Each is a pure heuristic over the merged entity/relationship set; none
// perform I/O or depend on detection order.
func DefaultDetectors() []Detector {
	return []Detector{
		DetectCreational,
		DetectStructural,
		DetectBehavioral,
		DetectArchitectural,
		DetectDDD,
		DetectMicroservices,
	}
}

// byKind groups entities by Kind for the detectors below.
func byKind(entities []entity.CodeEntity, kind entity.Kind) []entity.CodeEntity {
	var result []entity.CodeEntity
	for _, e := range entities {
		if e.Kind() == kind {
			result = append(result, e)
		}
	}
	return result
}

func outgoing(relationships []entity.CodeRelationship, sourceID string, relType entity.RelationshipType) []entity.CodeRelationship {
	var result []entity.CodeRelationship
	for _, r := range relationships {
		if r.SourceEntityID() == sourceID && r.Type() == relType {
			result = append(result, r)
		}
	}
	return result
}

// DetectCreational flags factory functions: a function or method named
// "New*"/"Create*"/"Build*" with at least one Creates relationship to a
// struct/class it constructs.
func DetectCreational(entities []entity.CodeEntity, relationships []entity.CodeRelationship) []ArchitecturalPattern {
	var patterns []ArchitecturalPattern
	for _, fn := range append(byKind(entities, entity.KindFunction), byKind(entities, entity.KindMethod)...) {
		name := fn.Name()
		isFactoryName := strings.HasPrefix(name, "New") || strings.HasPrefix(name, "Create") || strings.HasPrefix(name, "Build")
		if !isFactoryName {
			continue
		}
		creates := outgoing(relationships, fn.EntityID(), entity.RelationshipCreates)
		if len(creates) == 0 {
			continue
		}
		roles := map[string]string{fn.EntityID(): "factory"}
		for _, rel := range creates {
			roles[rel.TargetEntityID()] = "product"
		}
		confidence := 0.5 + 0.1*float64(len(creates))
		if confidence > 1 {
			confidence = 1
		}
		pattern, err := NewArchitecturalPattern(
			fmt.Sprintf("Factory(%s)", name),
			PatternTypeCreational,
			fn.RepositoryID(),
			confidence,
			roles,
			[]string{"factory-named function with Creates edges"},
			nil,
		)
		if err == nil {
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}

// DetectStructural flags facades: a class/struct whose outgoing Uses/Calls
// fan-out spans at least three distinct other entities, suggesting it
// coordinates a subsystem behind a simpler surface.
func DetectStructural(entities []entity.CodeEntity, relationships []entity.CodeRelationship) []ArchitecturalPattern {
	var patterns []ArchitecturalPattern
	for _, e := range append(byKind(entities, entity.KindClass), byKind(entities, entity.KindStruct)...) {
		targets := make(map[string]struct{})
		for _, r := range relationships {
			if r.SourceEntityID() != e.EntityID() {
				continue
			}
			if r.Type() == entity.RelationshipUses || r.Type() == entity.RelationshipCalls {
				targets[r.TargetEntityID()] = struct{}{}
			}
		}
		if len(targets) < 3 {
			continue
		}
		roles := map[string]string{e.EntityID(): "facade"}
		for id := range targets {
			roles[id] = "subsystem"
		}
		pattern, err := NewArchitecturalPattern(
			fmt.Sprintf("Facade(%s)", e.Name()),
			PatternTypeStructural,
			e.RepositoryID(),
			0.5,
			roles,
			[]string{"single entity coordinates 3+ distinct collaborators"},
			nil,
		)
		if err == nil {
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}

// DetectBehavioral flags strategy-like shapes: an interface implemented by
// two or more concrete types. Callers of those types are not examined.
func DetectBehavioral(entities []entity.CodeEntity, relationships []entity.CodeRelationship) []ArchitecturalPattern {
	var patterns []ArchitecturalPattern
	implementorsByInterface := make(map[string][]string)
	for _, r := range relationships {
		if r.Type() != entity.RelationshipImplementation {
			continue
		}
		implementorsByInterface[r.TargetEntityID()] = append(implementorsByInterface[r.TargetEntityID()], r.SourceEntityID())
	}
	byID := make(map[string]entity.CodeEntity, len(entities))
	for _, e := range entities {
		byID[e.EntityID()] = e
	}
	for ifaceID, impls := range implementorsByInterface {
		if len(impls) < 2 {
			continue
		}
		iface, ok := byID[ifaceID]
		if !ok {
			continue
		}
		roles := map[string]string{ifaceID: "strategy-interface"}
		for _, implID := range impls {
			roles[implID] = "concrete-strategy"
		}
		confidence := 0.4 + 0.1*float64(len(impls))
		if confidence > 1 {
			confidence = 1
		}
		pattern, err := NewArchitecturalPattern(
			fmt.Sprintf("Strategy(%s)", iface.Name()),
			PatternTypeBehavioral,
			iface.RepositoryID(),
			confidence,
			roles,
			[]string{"interface with 2+ interchangeable implementations"},
			nil,
		)
		if err == nil {
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}

// DetectArchitectural flags layered architecture: chains of
// LayerDependency relationships spanning at least two modules.
func DetectArchitectural(entities []entity.CodeEntity, relationships []entity.CodeRelationship) []ArchitecturalPattern {
	var layerEdges []entity.CodeRelationship
	for _, r := range relationships {
		if r.Type() == entity.RelationshipLayerDependency {
			layerEdges = append(layerEdges, r)
		}
	}
	if len(layerEdges) == 0 {
		return nil
	}
	roles := make(map[string]string)
	for _, r := range layerEdges {
		roles[r.SourceEntityID()] = "layer"
		roles[r.TargetEntityID()] = "layer"
	}
	if len(roles) < 2 {
		return nil
	}
	byID := make(map[string]entity.CodeEntity, len(entities))
	for _, e := range entities {
		byID[e.EntityID()] = e
	}
	var repositoryID int64
	for id := range roles {
		if e, ok := byID[id]; ok {
			repositoryID = e.RepositoryID()
			break
		}
	}
	pattern, err := NewArchitecturalPattern(
		"LayeredArchitecture",
		PatternTypeArchitectural,
		repositoryID,
		0.6,
		roles,
		[]string{"modules connected by layer_dependency edges"},
		nil,
	)
	if err != nil {
		return nil
	}
	return []ArchitecturalPattern{pattern}
}

// DetectDDD flags repository-pattern types: a class/struct named
// "*Repository"/"*Store". Detection uses the name alone; the type's
// methods are not inspected.
func DetectDDD(entities []entity.CodeEntity, relationships []entity.CodeRelationship) []ArchitecturalPattern {
	var patterns []ArchitecturalPattern
	for _, e := range append(byKind(entities, entity.KindClass), byKind(entities, entity.KindStruct)...) {
		name := e.Name()
		if !strings.HasSuffix(name, "Repository") && !strings.HasSuffix(name, "Store") {
			continue
		}
		pattern, err := NewArchitecturalPattern(
			fmt.Sprintf("Repository(%s)", name),
			PatternTypeDDD,
			e.RepositoryID(),
			0.45,
			map[string]string{e.EntityID(): "repository"},
			[]string{"type name follows the Repository/Store naming convention"},
			nil,
		)
		if err == nil {
			patterns = append(patterns, pattern)
		}
	}
	return patterns
}

// DetectMicroservices flags service boundaries: entities connected by
// ServiceConsumption or EventPublishing/EventSubscription relationships,
// which only appear between independently deployable components.
func DetectMicroservices(entities []entity.CodeEntity, relationships []entity.CodeRelationship) []ArchitecturalPattern {
	roles := make(map[string]string)
	for _, r := range relationships {
		switch r.Type() {
		case entity.RelationshipServiceConsumption, entity.RelationshipEventPublishing, entity.RelationshipEventSubscription:
			roles[r.SourceEntityID()] = "service"
			roles[r.TargetEntityID()] = "service"
		}
	}
	if len(roles) == 0 {
		return nil
	}
	byID := make(map[string]entity.CodeEntity, len(entities))
	for _, e := range entities {
		byID[e.EntityID()] = e
	}
	var repositoryID int64
	for id := range roles {
		if e, ok := byID[id]; ok {
			repositoryID = e.RepositoryID()
			break
		}
	}
	pattern, err := NewArchitecturalPattern(
		"ServiceOrientedBoundary",
		PatternTypeMicroservices,
		repositoryID,
		0.5,
		roles,
		[]string{"entities linked by service-consumption or event pub/sub edges"},
		nil,
	)
	if err != nil {
		return nil
	}
	return []ArchitecturalPattern{pattern}
}
