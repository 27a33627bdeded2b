package internal

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var templateSegmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// templateRoot returns the configured template root, falling back to the
// SMARTYAML_TMPL environment variable. A relative root is taken relative to
// the base path.
func (c *Context) templateRoot() string {
	root := c.p.templateRoot
	if root == "" {
		if v, ok := c.LookupEnv(TemplateRootEnvVar); ok {
			root = v
		}
	}
	if root == "" {
		return ""
	}
	if !filepath.IsAbs(root) {
		base := c.p.basePath
		if base == "" {
			base, _ = os.Getwd()
		}
		root = filepath.Join(base, root)
	}
	return filepath.Clean(root)
}

// templatePath maps a template reference to a file. A dotted name such as
// "services.web" becomes <root>/services/web.yaml and must stay inside the
// root; a reference that looks like a file (it has a separator or a document
// extension), or any reference when literal is set, is a path relative to
// the current document. The second result is the directory to resolve
// against.
func (c *Context) templatePath(ref string, literal bool) (string, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", "", NewError(KindTemplatePath, ErrMsgTemplateName)
	}
	if literal || isPathLike(ref) {
		return ref, c.baseDir, nil
	}

	root := c.templateRoot()
	if root == "" {
		return "", "", NewError(KindTemplatePath, ErrMsgTemplateNoRoot).WithDetail(ref)
	}

	segments := strings.Split(ref, TemplateNameSep)
	for _, s := range segments {
		if !templateSegmentPattern.MatchString(s) {
			return "", "", NewError(KindTemplatePath, ErrMsgTemplateName).WithDetail(ref)
		}
	}
	path := filepath.Join(append([]string{root}, segments...)...) + TemplateFileSuffix

	canonRoot, err := c.p.source.Canonical(root)
	if err != nil {
		canonRoot = root
	}
	canonPath, err := c.p.source.Canonical(path)
	if err != nil {
		canonPath = path
	}
	if !Within(canonRoot, canonPath) {
		return "", "", NewError(KindPathViolation, ErrMsgPathEscapesRoot).WithDetail(ref)
	}
	return path, root, nil
}

// ResolveTemplate loads the parent named by a __template value and reports
// whether it should be overlaid (deep merge, child wins) or replaced
// (top-level keys replaced wholesale).
//
// Accepted forms:
//
//	__template: base                      # name under the template root
//	__template: ../shared/base.yaml       # path
//	__template: {use: base, overlay: false}
//	__template: !import_yaml(base.yaml)   # any directive producing the parent
//	__template:
//	  <<: !import_yaml(base.yaml)         # any other mapping is the parent itself
func (c *Context) ResolveTemplate(spec Node) (Node, bool, error) {
	var (
		parent Node
		err    error
	)
	overlay := true

	switch s := spec.(type) {
	case *Tagged:
		parent, err = c.Resolve(s)
	case *Scalar:
		ref, _ := StringValue(s)
		parent, err = c.loadTemplate(ref, false)
	case *Mapping:
		if ov, found := s.Get(TemplateKeyOverlay); found {
			r, rerr := c.Resolve(ov)
			if rerr != nil {
				return nil, false, rerr
			}
			if overlay, err = templateFlag(r); err != nil {
				return nil, false, err
			}
		}
		switch {
		case hasKey(s, TemplateKeyPath):
			parent, err = c.templateRef(s, TemplateKeyPath, true)
		case hasKey(s, TemplateKeyName):
			parent, err = c.templateRef(s, TemplateKeyName, false)
		case hasKey(s, TemplateKeyUse):
			parent, err = c.templateRef(s, TemplateKeyUse, false)
		default:
			parent, err = c.Resolve(s.Without(TemplateKeyOverlay))
		}
	default:
		return nil, false, NewError(KindTemplatePath, ErrMsgTemplateSpec).WithPos(spec.Position())
	}
	if err != nil {
		return nil, false, err
	}

	c.p.logger.Debug(LogMsgTemplateResolved,
		zap.String(LogFieldOrigin, c.origin),
		zap.Bool(LogFieldOverlay, overlay),
	)
	return parent, overlay, nil
}

func (c *Context) templateRef(m *Mapping, key string, literal bool) (Node, error) {
	n, _ := m.Get(key)
	ref, err := c.ResolveString(n)
	if err != nil {
		return nil, err
	}
	return c.loadTemplate(ref, literal)
}

func (c *Context) loadTemplate(ref string, literal bool) (Node, error) {
	path, fromDir, err := c.templatePath(ref, literal)
	if err != nil {
		return nil, err
	}
	c.p.logger.Debug(LogMsgTemplateResolved,
		zap.String(LogFieldTemplate, ref),
		zap.String(LogFieldPath, path),
	)
	return c.LoadDocument(path, fromDir)
}

func templateFlag(n Node) (bool, error) {
	s, ok := n.(*Scalar)
	if !ok {
		return false, NewError(KindTemplatePath, ErrMsgTemplateSpec).WithDetail(TemplateKeyOverlay)
	}
	if b, isBool := s.Value.(bool); isBool {
		return b, nil
	}
	return ParseBool(ScalarString(s.Value))
}

func hasKey(m *Mapping, key string) bool {
	_, ok := m.Get(key)
	return ok
}
