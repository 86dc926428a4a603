package universe

import (
	"fmt"
	"strings"
)

//Template represent the seeding template which can used to settle the universe with predefined data
type Template struct {
	Name        string  //template name
	Descr       string  //template descr
	Coordinates [][]int //array of [row, col] coordinates
}

var builtinTemplates = map[string]Template{
	"block":   {"block", "2x2 still life", [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}},
	"blinker": {"blinker", "period 2 oscillator, horizontal phase", [][]int{{0, 0}, {0, 1}, {0, 2}}},
	"glider": {"glider", "moves one cell down-right every 4 generations", [][]int{
		{0, 1},
		{1, 2},
		{2, 0}, {2, 1}, {2, 2},
	}},
	"sample": {"sample", "block next to a small seed, used by the benchmarks", [][]int{
		{1, 1}, {2, 1},
		{1, 2}, {2, 2},
		{3, 3},
		{2, 4},
		{3, 4},
		{3, 5},
	}},
}

//TemplateNames returns the built-in template names
func TemplateNames() []string {
	return []string{"blinker", "block", "glider", "sample"}
}

//AddTemplate adds the seeding template to the universe's storage
//the universe can be populated with this template by call SettleTemplate
func (u *Universe) AddTemplate(tmpl Template) {
	u.templates[tmpl.Name] = tmpl
}

//Bounds returns the rows and columns covered by the template, measured from its origin
func (t Template) Bounds() (rows int, cols int) {
	for _, c := range t.Coordinates {
		if len(c) != 2 {
			continue
		}
		if c[0]+1 > rows {
			rows = c[0] + 1
		}
		if c[1]+1 > cols {
			cols = c[1] + 1
		}
	}
	return rows, cols
}

//TemplateFits reports whether the named template placed at row, col lies inside the grid
func (u *Universe) TemplateFits(name string, row int, col int) bool {
	tmpl, ok := u.templates[name]
	if !ok || row < 0 || col < 0 {
		return false
	}
	rows, cols := tmpl.Bounds()
	return row+rows <= u.Height() && col+cols <= u.Width()
}

//SettleTemplate populates the universe with the template placed at row, col
func (u *Universe) SettleTemplate(name string, row int, col int) error {
	tmpl, ok := u.templates[name]
	if !ok {
		return fmt.Errorf("template %q: %w", name, ErrInvalidArgument)
	}
	vc := make([][]int, 0, len(tmpl.Coordinates))
	for _, c := range tmpl.Coordinates {
		if len(c) != 2 {
			return fmt.Errorf("template %q coordinate %v: %w", name, c, ErrInvalidArgument)
		}
		vc = append(vc, []int{c[0] + row, c[1] + col})
	}
	return u.Settle(vc)
}

//ParseTemplate reads a plaintext pattern, one line per row
//'O', '#' and '*' are live cells, '.' and ' ' are dead, lines starting with '!' are comments
func ParseTemplate(name string, descr string, text string) (Template, error) {
	tmpl := Template{Name: name, Descr: descr}
	row := 0
	for _, line := range strings.Split(strings.Trim(text, "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "!") {
			continue
		}
		for col, ch := range []rune(line) {
			switch ch {
			case 'O', '#', '*':
				tmpl.Coordinates = append(tmpl.Coordinates, []int{row, col})
			case '.', ' ':
			default:
				return Template{}, fmt.Errorf("template %q row %d col %d: unexpected %q: %w", name, row, col, ch, ErrInvalidArgument)
			}
		}
		row++
	}
	return tmpl, nil
}
