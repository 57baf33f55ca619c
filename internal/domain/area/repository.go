package area

import "context"

type Repository interface {
	// ResolveArea returns the ID of the area with the same name key, creating
	// it with a freshly allocated ID when none exists.
	ResolveArea(ctx context.Context, item Area) (int64, error)
}
