package template

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync"
	"text/template"

	"github.com/kaveh8866/SemantIQ/internal/models"
)

const (
	SystemFile = "system.md"
	UserFile   = "user.md"
)

// Prompt is a rendered prompt. Full is what the adapter receives; Hash is the
// SHA-256 of Full.
type Prompt struct {
	System string
	User   string
	Full   string
	Hash   string
}

// Renderer renders the system.md/user.md pair of a prompt template
// directory. Sources are searched in order; the first one holding a template
// directory wins. Parsed templates are cached per directory.
type Renderer struct {
	sources []fs.FS

	mu     sync.Mutex
	parsed map[string]*promptTemplates
}

type promptTemplates struct {
	system *template.Template
	user   *template.Template
}

func NewRenderer(sources ...fs.FS) *Renderer {
	return &Renderer{
		sources: sources,
		parsed:  make(map[string]*promptTemplates),
	}
}

// Render renders the templates under templatePath for a test case. The user
// template sees the case input, constraints and string metadata; the system
// template sees the same context.
func (r *Renderer) Render(templatePath string, tc *models.TestCase) (*Prompt, error) {
	pt, err := r.load(templatePath)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		CaseID:      tc.CaseID,
		Input:       tc.Input,
		Constraints: tc.Constraints,
		Vars:        make(map[string]string, len(tc.Metadata)),
	}
	for k, v := range tc.Metadata {
		if s, ok := v.(string); ok {
			ctx.Vars[k] = s
		}
	}

	system, err := execute(pt.system, ctx)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", templatePath, SystemFile, err)
	}
	user, err := execute(pt.user, ctx)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", templatePath, UserFile, err)
	}

	full := system + "\n\n" + user
	sum := sha256.Sum256([]byte(full))
	return &Prompt{
		System: system,
		User:   user,
		Full:   full,
		Hash:   hex.EncodeToString(sum[:]),
	}, nil
}

func (r *Renderer) load(templatePath string) (*promptTemplates, error) {
	dir := path.Clean(templatePath)

	r.mu.Lock()
	defer r.mu.Unlock()

	if pt, ok := r.parsed[dir]; ok {
		return pt, nil
	}

	for _, src := range r.sources {
		systemText, err := fs.ReadFile(src, path.Join(dir, SystemFile))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading prompt template %s: %w", dir, err)
		}
		userText, err := fs.ReadFile(src, path.Join(dir, UserFile))
		if err != nil {
			return nil, fmt.Errorf("reading prompt template %s: %w", dir, err)
		}

		pt := &promptTemplates{}
		if pt.system, err = parse(SystemFile, string(systemText)); err != nil {
			return nil, err
		}
		if pt.user, err = parse(UserFile, string(userText)); err != nil {
			return nil, err
		}
		r.parsed[dir] = pt
		return pt, nil
	}

	return nil, fmt.Errorf("prompt template %q not found", templatePath)
}
