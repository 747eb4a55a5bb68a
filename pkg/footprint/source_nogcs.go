//go:build !gcp

package footprint

import (
	"context"
	"fmt"
)

func newGCSSource(context.Context, string, string) (Source, error) {
	return nil, fmt.Errorf("GCS seed sources are not enabled in this build (use -tags gcp)")
}
