package telegram

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/go-telegram/bot/models"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// renderEntities converts agent markdown into plain text plus Telegram
// message entities. Entity offsets are UTF-16 code units, per the Bot
// API contract.
func renderEntities(md string) (string, []models.MessageEntity) {
	if md == "" {
		return "", nil
	}

	exts := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock |
		parser.Strikethrough | parser.FencedCode | parser.Autolink | parser.Tables
	doc := parser.NewWithExtensions(exts).Parse([]byte(md))

	r := &entityRenderer{}
	r.renderNode(doc)
	r.normalize()

	return r.text.String(), r.entities
}

type entityRenderer struct {
	text     strings.Builder
	offset16 int
	entities []models.MessageEntity
}

func (r *entityRenderer) write(v string) {
	if v == "" {
		return
	}
	r.text.WriteString(v)
	r.offset16 += utf16Length(v)
}

func (r *entityRenderer) mark(entityType models.MessageEntityType, start int, url, language string) {
	length := r.offset16 - start
	if length <= 0 {
		return
	}

	entity := models.MessageEntity{
		Type:   entityType,
		Offset: start,
		Length: length,
	}
	if url != "" {
		entity.URL = url
	}
	if language != "" {
		entity.Language = language
	}
	r.entities = append(r.entities, entity)
}

// normalize orders entities by offset, longer first on ties, which is
// the nesting order Telegram expects.
func (r *entityRenderer) normalize() {
	if len(r.entities) <= 1 {
		return
	}
	sort.SliceStable(r.entities, func(i, j int) bool {
		if r.entities[i].Offset != r.entities[j].Offset {
			return r.entities[i].Offset < r.entities[j].Offset
		}
		return r.entities[i].Length > r.entities[j].Length
	})
}

func (r *entityRenderer) renderChildren(node ast.Node) {
	for _, child := range node.GetChildren() {
		r.renderNode(child)
	}
}

func (r *entityRenderer) renderNode(node ast.Node) {
	switch n := node.(type) {
	case *ast.Document:
		r.renderChildren(node)
	case *ast.Paragraph:
		r.renderChildren(node)
		if ast.GetNextNode(node) != nil {
			if _, ok := node.GetParent().(*ast.ListItem); ok {
				r.write("\n")
			} else {
				r.write("\n\n")
			}
		}
	case *ast.Heading:
		start := r.offset16
		r.renderChildren(node)
		r.mark(models.MessageEntityTypeBold, start, "", "")
		if ast.GetNextNode(node) != nil {
			r.write("\n\n")
		}
	case *ast.BlockQuote:
		start := r.offset16
		r.renderChildren(node)
		r.mark(models.MessageEntityTypeBlockquote, start, "", "")
		if ast.GetNextNode(node) != nil {
			r.write("\n\n")
		}
	case *ast.List:
		r.renderList(n)
		if ast.GetNextNode(node) != nil {
			r.write("\n\n")
		}
	case *ast.ListItem:
		r.renderListItem(n)
	case *ast.Strong:
		start := r.offset16
		r.renderChildren(node)
		r.mark(models.MessageEntityTypeBold, start, "", "")
	case *ast.Emph:
		start := r.offset16
		r.renderChildren(node)
		r.mark(models.MessageEntityTypeItalic, start, "", "")
	case *ast.Del:
		start := r.offset16
		r.renderChildren(node)
		r.mark(models.MessageEntityTypeStrikethrough, start, "", "")
	case *ast.Code:
		start := r.offset16
		r.write(string(n.Literal))
		r.mark(models.MessageEntityTypeCode, start, "", "")
	case *ast.CodeBlock:
		start := r.offset16
		r.write(strings.TrimRight(string(n.Literal), "\n"))
		r.mark(models.MessageEntityTypePre, start, "", codeLang(string(n.Info)))
		if ast.GetNextNode(node) != nil {
			r.write("\n\n")
		}
	case *ast.Link:
		start := r.offset16
		r.renderChildren(node)
		if r.offset16 > start {
			r.mark(models.MessageEntityTypeTextLink, start, string(n.Destination), "")
		} else {
			r.write(string(n.Destination))
		}
	case *ast.Text:
		r.write(string(n.Literal))
	case *ast.Softbreak, *ast.Hardbreak:
		r.write("\n")
	case *ast.HorizontalRule:
		r.write(strings.Repeat("-", 10))
		if ast.GetNextNode(node) != nil {
			r.write("\n\n")
		}
	case *ast.HTMLBlock:
		r.write(string(n.Literal))
		if ast.GetNextNode(node) != nil {
			r.write("\n\n")
		}
	case *ast.HTMLSpan:
		r.write(string(n.Literal))
	default:
		if len(node.GetChildren()) > 0 {
			r.renderChildren(node)
			return
		}
		if leaf := node.AsLeaf(); leaf != nil && len(leaf.Literal) > 0 {
			r.write(string(leaf.Literal))
		}
	}
}

func (r *entityRenderer) renderList(list *ast.List) {
	ordered := list.ListFlags&ast.ListTypeOrdered != 0
	index := list.Start
	if index <= 0 {
		index = 1
	}

	items := list.GetChildren()
	for i, one := range items {
		item, ok := one.(*ast.ListItem)
		if !ok {
			continue
		}

		if ordered {
			r.write(strconv.Itoa(index))
			r.write(". ")
			index++
		} else {
			r.write("- ")
		}

		r.renderListItem(item)
		if i < len(items)-1 {
			r.write("\n")
		}
	}
}

func (r *entityRenderer) renderListItem(item *ast.ListItem) {
	children := item.GetChildren()
	for i, child := range children {
		if paragraph, ok := child.(*ast.Paragraph); ok {
			r.renderChildren(paragraph)
		} else {
			r.renderNode(child)
		}
		if i < len(children)-1 {
			r.write("\n")
		}
	}
}

func utf16Length(input string) int {
	return len(utf16.Encode([]rune(input)))
}

func codeLang(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
