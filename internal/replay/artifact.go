package replay

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/SmitUplenchwar2687/httpcopy/internal/framing"
	"github.com/SmitUplenchwar2687/httpcopy/internal/fsmove"
)

const (
	requestSuffix         = "-request"
	responseSuffix        = "-response"
	forwardResponseSuffix = "-forward-response"
)

// ArtifactPrefix is the timestamp prefix shared by one replay's files.
func ArtifactPrefix(t time.Time) string {
	return t.Format("20060102_150405_")
}

// Artifact is a claimed flow: the archived request and response plus the
// path the shadow response will be written to.
type Artifact struct {
	ID             uuid.UUID `json:"id"`
	Prefix         string    `json:"prefix"`
	Request        string    `json:"request"`
	Response       string    `json:"response"`
	ShadowResponse string    `json:"shadow_response"`
	RequestLine    string    `json:"request_line"`
	Conn           uint64    `json:"conn,omitempty"`
	ClaimedAt      time.Time `json:"claimed_at"`
}

// Archive claims classified flows by renaming them into an archive directory.
type Archive struct {
	dir string
}

// NewArchive creates an archive rooted at dir (normally <data>/forward).
func NewArchive(dir string) *Archive {
	return &Archive{dir: dir}
}

// Dir returns the archive directory.
func (a *Archive) Dir() string {
	return a.dir
}

// Claim moves both files of an accepted flow into the archive under a
// timestamp prefix taken from now. Neither rename overwrites an existing
// file. If the response cannot be moved, the request is moved back so the
// pair stays together in the working directory.
func (a *Archive) Claim(res framing.Result, now time.Time) (Artifact, error) {
	prefix := ArtifactPrefix(now)
	reqBase := res.Request.Base()
	respBase := res.Response.Base()

	art := Artifact{
		ID:             uuid.New(),
		Prefix:         prefix,
		Request:        filepath.Join(a.dir, prefix+reqBase+requestSuffix),
		Response:       filepath.Join(a.dir, prefix+respBase+responseSuffix),
		ShadowResponse: filepath.Join(a.dir, prefix+respBase+forwardResponseSuffix),
		RequestLine:    res.Line.Raw,
		Conn:           res.Request.Name.ConnKey(),
		ClaimedAt:      now,
	}

	if err := fsmove.Rename(res.Request.Path, art.Request); err != nil {
		return Artifact{}, fmt.Errorf("claiming request %s: %w", reqBase, err)
	}
	if err := fsmove.Rename(res.Response.Path, art.Response); err != nil {
		if rerr := fsmove.Rename(art.Request, res.Request.Path); rerr != nil {
			return Artifact{}, fmt.Errorf("claiming response %s: %w (rollback of %s failed: %v)",
				respBase, err, reqBase, rerr)
		}
		return Artifact{}, fmt.Errorf("claiming response %s: %w", respBase, err)
	}
	return art, nil
}

// createShadowFile opens the shadow response file, refusing to reuse one.
func createShadowFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}
