package robot

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/awalterschulze/gographviz"
)

// ToDot renders the kinematic tree as a graphviz document: one node per
// body, edges from parent to child labelled with the joints that drive
// the child.
func (d *Description) ToDot() string {
	g := gographviz.NewGraph()
	if err := g.SetName("G"); err != nil {
		panic(err)
	}
	g.SetDir(true)

	joints := make(map[string][]string)
	for _, j := range d.Joints {
		joints[j.Body] = append(joints[j.Body], j.Name)
	}

	var buf bytes.Buffer
	for _, b := range d.Bodies {
		tmpl.Execute(&buf, b)
		attrs := map[string]string{
			"fontname": "Monaco",
			"shape":    "none",
			"label":    buf.String(),
		}
		g.AddNode("G", b.Name, attrs)
		buf.Reset()
	}
	for _, b := range d.Bodies {
		if b.Parent == "" {
			continue
		}
		var attrs map[string]string
		if names := joints[b.Name]; len(names) > 0 {
			attrs = map[string]string{
				"label": fmt.Sprintf(`"%s"`, strings.Join(names, `\n`)),
			}
		}
		g.AddEdge(b.Parent, b.Name, true, attrs)
	}
	return g.String()
}

const tmplRaw = `<
<TABLE BORDER="0" CELLBORDER="1" CELLSPACING="0">
<TR><TD>Body</TD><TD>{{.Name}}</TD></TR>
<TR><TD>Mass</TD><TD>{{printf "%.1f" .Mass}}kg</TD></TR>
{{if .Foot}}<TR><TD COLSPAN="2">foot</TD></TR>{{end}}</TABLE>
>
`

var tmpl *template.Template

func init() {
	tmpl = template.Must(template.New("body").Parse(tmplRaw))
}
