package project

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dantiw/csreview/internal/scanerr"
)

// Extension is the file extension of project descriptors.
const Extension = ".csproj"

// Package is one PackageReference item.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Line    int    `json:"line"`
}

// Property is one build property from a PropertyGroup.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Line  int    `json:"line"`
}

// Descriptor is the structured view of a project file.
type Descriptor struct {
	Path        string     `json:"path"`
	SDK         string     `json:"sdk,omitempty"`
	Frameworks  []string   `json:"frameworks"`
	Properties  []Property `json:"properties"`
	Packages    []Package  `json:"packages"`
	ProjectRefs []string   `json:"projectReferences,omitempty"`
}

// Property returns the last value of a property, as MSBuild would.
func (d *Descriptor) Property(name string) (string, bool) {
	for i := len(d.Properties) - 1; i >= 0; i-- {
		if strings.EqualFold(d.Properties[i].Name, name) {
			return d.Properties[i].Value, true
		}
	}
	return "", false
}

// Find resolves path to descriptor files. A descriptor path is returned as
// is; a directory yields the descriptors directly inside it, sorted.
func Find(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, scanerr.New(scanerr.NotFound, path, err)
		}
		return nil, scanerr.New(scanerr.IOFailure, path, err)
	}
	if !info.IsDir() {
		if !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil, scanerr.New(scanerr.NotFound, path, fmt.Errorf("not a %s file", Extension))
		}
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, scanerr.New(scanerr.IOFailure, path, err)
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), Extension) {
			found = append(found, filepath.Join(path, e.Name()))
		}
	}
	if len(found) == 0 {
		return nil, scanerr.New(scanerr.NotFound, path, fmt.Errorf("no %s file in directory", Extension))
	}
	sort.Strings(found)
	return found, nil
}

// Load reads and parses one descriptor file.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, scanerr.New(scanerr.NotFound, path, err)
		}
		return nil, scanerr.New(scanerr.IOFailure, path, err)
	}
	d, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, scanerr.New(scanerr.MalformedDescriptor, path, err)
	}
	d.Path = path
	return d, nil
}

// Parse decodes a project file. Items and properties are collected in
// document order regardless of conditions on their groups.
func Parse(r io.Reader) (*Descriptor, error) {
	dec := xml.NewDecoder(r)
	d := &Descriptor{}
	var (
		stack    []string
		text     strings.Builder
		propLine int
		sawRoot  bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := dec.InputPos()
		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if len(stack) == 0 {
				if name != "Project" {
					return nil, fmt.Errorf("root element is <%s>, want <Project>", name)
				}
				sawRoot = true
				d.SDK = attr(t, "Sdk")
			}
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			switch {
			case parent == "PropertyGroup":
				text.Reset()
				propLine = line
			case parent == "ItemGroup" && name == "PackageReference":
				d.Packages = append(d.Packages, Package{
					Name:    firstNonEmpty(attr(t, "Include"), attr(t, "Update")),
					Version: attr(t, "Version"),
					Line:    line,
				})
			case parent == "ItemGroup" && name == "ProjectReference":
				d.ProjectRefs = append(d.ProjectRefs, attr(t, "Include"))
			case parent == "PackageReference" && name == "Version":
				text.Reset()
			}
			stack = append(stack, name)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unbalanced </%s>", t.Name.Local)
			}
			stack = stack[:len(stack)-1]
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			value := strings.TrimSpace(text.String())
			switch {
			case parent == "PropertyGroup":
				d.Properties = append(d.Properties, Property{Name: t.Name.Local, Value: value, Line: propLine})
			case parent == "PackageReference" && t.Name.Local == "Version" && len(d.Packages) > 0:
				d.Packages[len(d.Packages)-1].Version = value
			}
			text.Reset()
		}
	}
	if !sawRoot {
		return nil, errors.New("no <Project> element")
	}
	d.Frameworks = frameworks(d)
	return d, nil
}

func frameworks(d *Descriptor) []string {
	var out []string
	seen := make(map[string]bool)
	for _, key := range []string{"TargetFramework", "TargetFrameworks"} {
		v, ok := d.Property(key)
		if !ok {
			continue
		}
		for _, f := range strings.Split(v, ";") {
			f = strings.ToLower(strings.TrimSpace(f))
			if f != "" && !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

func attr(t xml.StartElement, name string) string {
	for _, a := range t.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
