package keys

import (
	"fmt"
	"net/url"

	"rando/internal/models"
)

// Scene returns the canonical S3 key for the scene document of req. The id
// and version are percent-escaped path segments with their case kept, so
// distinct ids never share a key.
func Scene(req models.BuildRequest) string {
	version := req.Version
	if version == "" {
		version = "1.0"
	}
	return fmt.Sprintf("scenes/%s/%s.json", url.PathEscape(version), url.PathEscape(req.ID))
}
