package format

import (
	"encoding/json"
	"fmt"

	"github.com/davidahmann/ctxf/core/errors"
	"github.com/davidahmann/ctxf/core/jcs"
	schemacontext "github.com/davidahmann/ctxf/core/schema/v1/context"
)

// ExportJSON renders a document as RFC 8785 canonical JSON for downstream
// consumers (report generators, diff tooling). The same document always
// exports to byte-identical output.
func ExportJSON(doc *schemacontext.Document) ([]byte, error) {
	out, err := jcs.MarshalCanonical(doc)
	if err != nil {
		return nil, errors.Wrap(
			fmt.Errorf("export document json: %w", err),
			errors.CategoryInternalFailure, "EXPORT_FAILED", "", false,
		)
	}
	return out, nil
}

// ExportDigest returns the sha256 digest of the canonical JSON export, used
// to detect document changes without comparing full content.
func ExportDigest(doc *schemacontext.Document) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(
			fmt.Errorf("digest document json: %w", err),
			errors.CategoryInternalFailure, "EXPORT_FAILED", "", false,
		)
	}
	digest, err := jcs.DigestJCS(raw)
	if err != nil {
		return "", errors.Wrap(
			fmt.Errorf("digest document json: %w", err),
			errors.CategoryInternalFailure, "EXPORT_FAILED", "", false,
		)
	}
	return digest, nil
}
