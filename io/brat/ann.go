// Package brat reads and writes documents in the brat standoff
// annotation format: a plain text file paired with an .ann file listing
// entities (T lines), relations (R lines) and attributes (A lines).
package brat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/c360studio/medtext/span"
)

// Entity is a T line of an .ann file. Discontinuous entities carry
// several fragments.
type Entity struct {
	ID        string
	Type      string
	Fragments []span.Span
	Text      string
}

// Relation is an R line of an .ann file. Subj and Obj reference entity
// ids within the same file.
type Relation struct {
	ID   string
	Type string
	Subj string
	Obj  string
}

// Attribute is an A line of an .ann file. Binary attributes have an
// empty Value.
type Attribute struct {
	ID     string
	Type   string
	Target string
	Value  string
}

// AnnFile is the parsed content of one .ann file, in file order.
type AnnFile struct {
	Entities   []Entity
	Relations  []Relation
	Attributes []Attribute
}

// ParseAnn parses a brat .ann file. Blank lines, comments and
// annotation kinds other than T, R and A are skipped.
func ParseAnn(r io.Reader) (*AnnFile, error) {
	file := &AnnFile{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch line[0] {
		case 'T':
			entity, err := parseEntityLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			file.Entities = append(file.Entities, entity)
		case 'R':
			relation, err := parseRelationLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			file.Relations = append(file.Relations, relation)
		case 'A':
			attribute, err := parseAttributeLine(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			file.Attributes = append(file.Attributes, attribute)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return file, nil
}

// parseEntityLine parses "T1\tDisease 0 5;10 15\ttext of the entity".
func parseEntityLine(line string) (Entity, error) {
	fields := strings.SplitN(line, "\t", 3)
	if len(fields) < 2 {
		return Entity{}, fmt.Errorf("malformed entity line %q", line)
	}
	entity := Entity{ID: fields[0]}
	if len(fields) == 3 {
		entity.Text = fields[2]
	}

	typeAndSpans := strings.SplitN(fields[1], " ", 2)
	if len(typeAndSpans) != 2 {
		return Entity{}, fmt.Errorf("entity %s: missing offsets", entity.ID)
	}
	entity.Type = typeAndSpans[0]

	for _, fragment := range strings.Split(typeAndSpans[1], ";") {
		offsets := strings.Fields(fragment)
		if len(offsets) != 2 {
			return Entity{}, fmt.Errorf("entity %s: malformed offsets %q", entity.ID, fragment)
		}
		start, err := strconv.Atoi(offsets[0])
		if err != nil {
			return Entity{}, fmt.Errorf("entity %s: %w", entity.ID, err)
		}
		end, err := strconv.Atoi(offsets[1])
		if err != nil {
			return Entity{}, fmt.Errorf("entity %s: %w", entity.ID, err)
		}
		sp, err := span.NewSpan(start, end)
		if err != nil {
			return Entity{}, fmt.Errorf("entity %s: %w", entity.ID, err)
		}
		entity.Fragments = append(entity.Fragments, sp)
	}
	return entity, nil
}

// parseRelationLine parses "R1\tCaused Arg1:T1 Arg2:T2".
func parseRelationLine(line string) (Relation, error) {
	fields := strings.SplitN(line, "\t", 2)
	if len(fields) != 2 {
		return Relation{}, fmt.Errorf("malformed relation line %q", line)
	}
	parts := strings.Fields(fields[1])
	if len(parts) != 3 {
		return Relation{}, fmt.Errorf("relation %s: expected type and two arguments", fields[0])
	}
	subj, ok := strings.CutPrefix(parts[1], "Arg1:")
	if !ok {
		return Relation{}, fmt.Errorf("relation %s: malformed argument %q", fields[0], parts[1])
	}
	obj, ok := strings.CutPrefix(parts[2], "Arg2:")
	if !ok {
		return Relation{}, fmt.Errorf("relation %s: malformed argument %q", fields[0], parts[2])
	}
	return Relation{ID: fields[0], Type: parts[0], Subj: subj, Obj: obj}, nil
}

// parseAttributeLine parses "A1\tNegated T1" or "A1\tCertainty T1 high".
func parseAttributeLine(line string) (Attribute, error) {
	fields := strings.SplitN(line, "\t", 2)
	if len(fields) != 2 {
		return Attribute{}, fmt.Errorf("malformed attribute line %q", line)
	}
	parts := strings.Fields(fields[1])
	if len(parts) < 2 || len(parts) > 3 {
		return Attribute{}, fmt.Errorf("attribute %s: expected type, target and optional value", fields[0])
	}
	attribute := Attribute{ID: fields[0], Type: parts[0], Target: parts[1]}
	if len(parts) == 3 {
		attribute.Value = parts[2]
	}
	return attribute, nil
}

func formatEntity(e Entity) string {
	fragments := make([]string, len(e.Fragments))
	for i, sp := range e.Fragments {
		fragments[i] = fmt.Sprintf("%d %d", sp.Start, sp.End)
	}
	// brat rejects newlines inside entity text.
	text := strings.ReplaceAll(e.Text, "\n", " ")
	return fmt.Sprintf("%s\t%s %s\t%s\n", e.ID, e.Type, strings.Join(fragments, ";"), text)
}

func formatRelation(r Relation) string {
	return fmt.Sprintf("%s\t%s Arg1:%s Arg2:%s\n", r.ID, r.Type, r.Subj, r.Obj)
}

func formatAttribute(a Attribute) string {
	if a.Value == "" {
		return fmt.Sprintf("%s\t%s %s\n", a.ID, a.Type, a.Target)
	}
	return fmt.Sprintf("%s\t%s %s %s\n", a.ID, a.Type, a.Target, a.Value)
}
