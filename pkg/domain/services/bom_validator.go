package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vsinha/production/pkg/domain/entities"
)

// BOMValidator checks a product catalog before it is loaded: every bill of
// materials must be acyclic and must only link storable products.
type BOMValidator struct{}

func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// ValidationResult contains the results of BOM validation
type ValidationResult struct {
	CyclePaths     [][]entities.PartNumber
	DuplicateLines []*entities.BOMLine
	UnknownParts   []entities.PartNumber
	NotStorable    []entities.PartNumber
	Errors         []string
}

func (r *ValidationResult) HasCycles() bool {
	return len(r.CyclePaths) > 0
}

func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Err folds every problem into one error, nil when the catalog is valid
func (r *ValidationResult) Err() error {
	if r.IsValid() {
		return nil
	}
	return fmt.Errorf("invalid bill of materials: %s", strings.Join(r.Errors, "; "))
}

// ValidateCatalog validates lines against the products they reference
func (v *BOMValidator) ValidateCatalog(products []*entities.Product, lines []*entities.BOMLine) *ValidationResult {
	result := &ValidationResult{}

	known := make(map[entities.PartNumber]*entities.Product, len(products))
	for _, product := range products {
		known[product.PartNumber] = product
	}

	unknown := make(map[entities.PartNumber]bool)
	notStorable := make(map[entities.PartNumber]bool)
	for _, line := range lines {
		for _, pn := range []entities.PartNumber{line.ParentPN, line.ChildPN} {
			product, ok := known[pn]
			switch {
			case !ok:
				unknown[pn] = true
			case !product.IsStorable():
				notStorable[pn] = true
			}
		}
	}
	result.UnknownParts = sortedParts(unknown)
	result.NotStorable = sortedParts(notStorable)
	result.DuplicateLines = v.detectDuplicateLines(lines)
	result.CyclePaths = v.detectCycles(v.buildAdjacencyMap(lines))

	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %v", cycle))
	}
	if len(result.DuplicateLines) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("found %d duplicate BOM lines", len(result.DuplicateLines)))
	}
	if len(result.UnknownParts) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("unknown parts: %v", result.UnknownParts))
	}
	if len(result.NotStorable) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("services cannot appear in a BOM: %v", result.NotStorable))
	}
	return result
}

// buildAdjacencyMap creates a map of parent -> children relationships
func (v *BOMValidator) buildAdjacencyMap(lines []*entities.BOMLine) map[entities.PartNumber][]entities.PartNumber {
	adjacency := make(map[entities.PartNumber][]entities.PartNumber)
	for _, line := range lines {
		children := adjacency[line.ParentPN]
		found := false
		for _, child := range children {
			if child == line.ChildPN {
				found = true
				break
			}
		}
		if !found {
			adjacency[line.ParentPN] = append(children, line.ChildPN)
		}
	}
	return adjacency
}

// detectCycles runs a DFS from every parent, in part number order so the
// reported paths are stable.
func (v *BOMValidator) detectCycles(adjacency map[entities.PartNumber][]entities.PartNumber) [][]entities.PartNumber {
	visited := make(map[entities.PartNumber]bool)
	onPath := make(map[entities.PartNumber]bool)
	var cycles [][]entities.PartNumber

	parents := make(map[entities.PartNumber]bool, len(adjacency))
	for parent := range adjacency {
		parents[parent] = true
	}
	for _, parent := range sortedParts(parents) {
		if !visited[parent] {
			v.dfsDetectCycle(parent, adjacency, visited, onPath, nil, &cycles)
		}
	}
	return cycles
}

func (v *BOMValidator) dfsDetectCycle(
	current entities.PartNumber,
	adjacency map[entities.PartNumber][]entities.PartNumber,
	visited map[entities.PartNumber]bool,
	onPath map[entities.PartNumber]bool,
	path []entities.PartNumber,
	cycles *[][]entities.PartNumber,
) {
	visited[current] = true
	onPath[current] = true
	path = append(path, current)

	for _, child := range adjacency[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacency, visited, onPath, path, cycles)
			continue
		}
		if !onPath[child] {
			continue
		}
		for i, part := range path {
			if part == child {
				cycle := append([]entities.PartNumber{}, path[i:]...)
				*cycles = append(*cycles, append(cycle, child))
				break
			}
		}
	}

	onPath[current] = false
}

// detectDuplicateLines finds lines repeating a parent and child pair
func (v *BOMValidator) detectDuplicateLines(lines []*entities.BOMLine) []*entities.BOMLine {
	seen := make(map[[2]entities.PartNumber]bool)
	var duplicates []*entities.BOMLine
	for _, line := range lines {
		key := [2]entities.PartNumber{line.ParentPN, line.ChildPN}
		if seen[key] {
			duplicates = append(duplicates, line)
			continue
		}
		seen[key] = true
	}
	return duplicates
}

func sortedParts(set map[entities.PartNumber]bool) []entities.PartNumber {
	parts := make([]entities.PartNumber, 0, len(set))
	for pn := range set {
		parts = append(parts, pn)
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i] < parts[j] })
	return parts
}
