package recipe

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/sokinpui/repatch/internal/patcher"
)

// replaceLang tags the fenced block holding a step's replacement text.
const replaceLang = "replace"

// patternLangs maps the tag of a pattern block to the step kind it creates.
var patternLangs = map[string]patcher.Kind{
	"regex":      patcher.KindSubstitute,
	"substitute": patcher.KindSubstitute,
	"span":       patcher.KindSpan,
	"literal":    patcher.KindLiteral,
}

var pathInHintRegex = regexp.MustCompile("`([^`\n]+)`")

// CodeBlock represents a parsed code block from markdown content.
type CodeBlock struct {
	// Hint is the raw text of the paragraph immediately preceding the code block.
	Hint string
	// Info is the full info string, e.g. "span flags=s name=day-column".
	Info string
	// Content is the raw text inside the code block.
	Content string
}

// Lang returns the first word of the info string.
func (b CodeBlock) Lang() string {
	if fields := strings.Fields(b.Info); len(fields) > 0 {
		return strings.ToLower(fields[0])
	}
	return ""
}

// ExtractCodeBlocks uses a markdown AST to find all fenced code blocks
// and their preceding paragraph, which is treated as a hint.
func ExtractCodeBlocks(source []byte) ([]CodeBlock, error) {
	var blocks []CodeBlock
	root := goldmark.DefaultParser().Parse(text.NewReader(source))

	walker := func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		fenced, ok := node.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var block CodeBlock
		if fenced.Info != nil {
			block.Info = strings.TrimSpace(string(fenced.Info.Segment.Value(source)))
		}
		block.Content = string(rawLines(fenced, source))

		if p, ok := fenced.PreviousSibling().(*ast.Paragraph); ok {
			block.Hint = strings.TrimSpace(string(rawLines(p, source)))
		}

		blocks = append(blocks, block)
		return ast.WalkSkipChildren, nil
	}

	if err := ast.Walk(root, walker); err != nil {
		return nil, err
	}
	return blocks, nil
}

func rawLines(node ast.Node, source []byte) []byte {
	var buf bytes.Buffer
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(source))
	}
	return buf.Bytes()
}

// ParseMarkdown builds recipes from a markdown document. A paragraph holding
// a backticked path selects the target file for the blocks that follow. Each
// pattern block (regex, span or literal) must be followed by a replace block.
// One trailing newline is stripped from every block; end a block with an
// empty line to keep it.
func ParseMarkdown(content string) ([]Recipe, error) {
	blocks, err := ExtractCodeBlocks([]byte(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}

	var (
		recipes []Recipe
		index   = map[string]int{}
		target  string
		pending *patcher.Step
		owner   string
	)

	for i, block := range blocks {
		if path := extractPathFromHint(block.Hint); path != "" {
			target = path
		}

		lang := block.Lang()
		if lang == replaceLang {
			if pending == nil {
				return nil, fmt.Errorf("code block %d: replace block without a preceding pattern block", i+1)
			}
			pending.Replace = trimBlock(block.Content)
			pos, ok := index[owner]
			if !ok {
				pos = len(recipes)
				index[owner] = pos
				recipes = append(recipes, Recipe{Name: owner, Target: owner})
			}
			recipes[pos].Steps = append(recipes[pos].Steps, *pending)
			pending = nil
			continue
		}

		kind, ok := patternLangs[lang]
		if !ok {
			continue
		}
		if pending != nil {
			return nil, fmt.Errorf("code block %d: pattern block follows a pattern block with no replacement", i+1)
		}
		if target == "" {
			return nil, fmt.Errorf("code block %d: no target file; precede it with a `path/to/file` line", i+1)
		}
		step, err := stepFromInfo(kind, block.Info)
		if err != nil {
			return nil, fmt.Errorf("code block %d: %w", i+1, err)
		}
		step.Pattern = trimBlock(block.Content)
		pending, owner = &step, target
	}

	if pending != nil {
		return nil, fmt.Errorf("pattern block %q has no replace block", pending.Label(0))
	}

	for i := range recipes {
		recipes[i].ApplyDefaults()
		if err := recipes[i].Validate(); err != nil {
			return nil, err
		}
	}
	return recipes, nil
}

// stepFromInfo reads name=, flags= and expand options from an info string.
func stepFromInfo(kind patcher.Kind, info string) (patcher.Step, error) {
	step := patcher.Step{Kind: kind}
	fields := strings.Fields(info)
	if len(fields) < 2 {
		return step, nil
	}
	for _, field := range fields[1:] {
		key, value, _ := strings.Cut(field, "=")
		switch key {
		case "name":
			step.Name = value
		case "flags":
			step.Flags = value
		case "expand":
			step.Expand = true
		default:
			return step, fmt.Errorf("unknown block option %q", key)
		}
	}
	return step, nil
}

func trimBlock(s string) string {
	return strings.TrimSuffix(s, "\n")
}

func extractPathFromHint(hint string) string {
	// A path hint must be enclosed in backticks, e.g., `path/to/file.go`
	if match := pathInHintRegex.FindStringSubmatch(hint); len(match) > 1 {
		path := strings.TrimSpace(match[1])
		// Disallow spaces to avoid capturing commands like `go run main.go` as a path.
		if !strings.Contains(path, " ") {
			return path
		}
	}
	return ""
}
