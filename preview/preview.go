// Package preview renders quicklook plots of downloaded granule files by
// delegating to an external plotting command. The file format and the
// rendering are opaque collaborators: this package only sequences the call.
package preview

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/oceanwatch/granule-fetcher/common"
	"github.com/oceanwatch/granule-fetcher/service/log"
)

// Renderer shells out to a quicklook command. The command is a template whose
// {FILE} and {OUT} markers are replaced by the granule file path and the
// output image path.
// Example: "python3 quicklook.py {FILE} {OUT}"
type Renderer struct {
	Command string
}

// NewRenderer creates a Renderer from a command template
func NewRenderer(command string) *Renderer {
	return &Renderer{Command: command}
}

// Render produces a quicklook image next to the downloaded file and returns
// its path. Stdout/stderr of the plotting command are forwarded to the logger.
func (r *Renderer) Render(ctx context.Context, file common.DownloadedFile) (string, error) {
	args := strings.Fields(r.Command)
	if len(args) == 0 {
		return "", fmt.Errorf("Render: no quicklook command configured")
	}

	out := strings.TrimSuffix(file.LocalPath, filepath.Ext(file.LocalPath)) + ".png"
	for i, arg := range args {
		arg = strings.ReplaceAll(arg, "{FILE}", file.LocalPath)
		args[i] = strings.ReplaceAll(arg, "{OUT}", out)
	}

	log.Logger(ctx).Sugar().Debugf("rendering quicklook for %s", file.GranuleID)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := log.Exec(ctx, cmd); err != nil {
		return "", fmt.Errorf("Render[%s]: %w", file.GranuleID, err)
	}
	return out, nil
}
