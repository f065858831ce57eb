package catalog

import (
	"context"
	"fmt"
	"strings"

	"examvault/internal/models"
	"examvault/internal/util"
)

// CourseFinder is the catalog lookup surface the resolver needs. The
// storage.CourseRepo satisfies it; tests use an in-memory fake.
type CourseFinder interface {
	ByCode(ctx context.Context, code string) (models.Course, bool, error)
	ByNamePrefix(ctx context.Context, prefix string) (models.Course, bool, error)
}

type Resolver struct {
	courses CourseFinder
}

func NewResolver(courses CourseFinder) *Resolver {
	return &Resolver{courses: courses}
}

// Resolve maps an extracted {code, name} pair to exactly one catalog course.
// An exact code match is authoritative and short-circuits name matching.
// Otherwise the name is matched as a case-insensitive prefix; ties go to the
// lowest course code. No match yields ErrCourseNotFound.
func (r *Resolver) Resolve(ctx context.Context, code, name string) (models.Course, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)

	if code != "" {
		c, ok, err := r.courses.ByCode(ctx, code)
		if err != nil {
			return models.Course{}, fmt.Errorf("lookup by code: %w", err)
		}
		if ok {
			return c, nil
		}
	}
	if name != "" {
		c, ok, err := r.courses.ByNamePrefix(ctx, name)
		if err != nil {
			return models.Course{}, fmt.Errorf("lookup by name prefix: %w", err)
		}
		if ok {
			return c, nil
		}
	}
	return models.Course{}, fmt.Errorf("%w: code=%q name=%q", util.ErrCourseNotFound, code, name)
}
