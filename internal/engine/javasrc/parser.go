package javasrc

import (
	stderrors "errors"
	"time"

	"serialguard/internal/core/errors"
	"serialguard/internal/shared/observability"

	"github.com/cespare/xxhash/v2"
)

// ErrNotParseable marks paths the model does not treat as Java sources.
var ErrNotParseable = stderrors.New("not a Java source file")

// Parser turns Java source text into a SourceFile using pooled tree-sitter
// parsers. It is safe for concurrent use.
type Parser struct {
	pool      *ParserPool
	extractor *javaExtractor
	now       func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		pool:      NewParserPool(Language()),
		extractor: newJavaExtractor(),
		now:       time.Now,
	}
}

// Parse extracts class declarations from content. Syntax errors do not fail
// the parse; tree-sitter recovers and HasErrors is set on the result.
func (p *Parser) Parse(path string, content []byte) (*SourceFile, error) {
	start := time.Now()
	defer func() {
		observability.ParsingDuration.Observe(time.Since(start).Seconds())
	}()

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.AddContext(errors.New(errors.CodeInternal, "parse failed"), errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	file := &SourceFile{
		Path:        path,
		Fingerprint: xxhash.Sum64(content),
		ParsedAt:    p.now(),
		HasErrors:   root.HasError(),
	}
	p.extractor.extract(root, content, file)
	return file, nil
}

// Fingerprint hashes source content the same way Parse does.
func Fingerprint(content []byte) uint64 {
	return xxhash.Sum64(content)
}
