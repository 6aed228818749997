package catalogimport

import (
	"fmt"

	"github.com/begmaroman/go-dag"

	"github.com/alem-hub/curriculum-hub/internal/domain/curriculum"
	"github.com/alem-hub/curriculum-hub/internal/domain/shared"
)

// courseNode is a prerequisite graph vertex.
type courseNode struct {
	id string
}

// ID implements dag.Identifiable.
func (n *courseNode) ID() string {
	return n.id
}

// GraphValidator rejects imports whose prerequisite relation contains a cycle.
// Edges run from prerequisite to dependent course.
type GraphValidator struct{}

// NewGraphValidator creates a validator.
func NewGraphValidator() *GraphValidator {
	return &GraphValidator{}
}

// ValidateImport returns shared.ErrPrerequisiteCycle when the courses cannot be ordered.
// Prerequisites outside the import become vertices with no prerequisites of their own.
func (v *GraphValidator) ValidateImport(data curriculum.CareerImport) error {
	_, err := buildGraph(data.Courses)
	return err
}

func buildGraph(courses []curriculum.Course) (*dag.DAG[*courseNode], error) {
	d := dag.NewDAG[*courseNode]()
	known := make(map[string]struct{}, len(courses))

	ensure := func(id string) error {
		if _, ok := known[id]; ok {
			return nil
		}
		if _, err := d.AddVertex(&courseNode{id: id}); err != nil {
			return fmt.Errorf("add vertex %s: %w", id, err)
		}
		known[id] = struct{}{}
		return nil
	}

	for _, c := range courses {
		if err := ensure(c.ID.String()); err != nil {
			return nil, err
		}
	}

	for _, c := range courses {
		seen := make(map[curriculum.CourseID]struct{}, len(c.Prerequisites))
		for _, pre := range c.Prerequisites {
			if _, dup := seen[pre]; dup {
				continue
			}
			seen[pre] = struct{}{}

			if pre == c.ID {
				return nil, shared.WrapError("curriculum", "Import", shared.ErrPrerequisiteCycle,
					fmt.Sprintf("prerequisite cycle: course %s requires itself", c.ID), nil)
			}
			if err := ensure(pre.String()); err != nil {
				return nil, err
			}
			if err := d.AddEdge(pre.String(), c.ID.String()); err != nil {
				return nil, shared.WrapError("curriculum", "Import", shared.ErrPrerequisiteCycle,
					fmt.Sprintf("prerequisite cycle at %s -> %s", pre, c.ID), err)
			}
		}
	}

	return d, nil
}
