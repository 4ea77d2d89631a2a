package reader

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/achilleasa/soundzone/types"
)

func TestVec2Parser(t *testing.T) {
	expError := "unsupported syntax for 'vt'; expected 2 arguments; got 0"
	_, err := parseVec2([]string{"vt"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec2([]string{"vt", "not-a-float", "2"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec2([]string{"vt", "3.14", "0"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec2{3.14, 0}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := "unsupported syntax for 'v'; expected 3 arguments; got 0"
	_, err := parseVec3([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	_, err = parseVec3([]string{"v", "not-a-float", "2", "3"})
	if err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseVec3([]string{"v", "3.14", "0", "0.4"})
	if err != nil {
		t.Fatal(err)
	}

	expVal := types.Vec3{3.14, 0, 0.4}
	if !reflect.DeepEqual(v, expVal) {
		t.Fatalf("expected parsed value to be %v; got %v", expVal, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	expError := "index out of bounds"
	type spec struct {
		in       string
		listLen  int
		out      int
		expError string
	}
	specs := []spec{
		{"2", 1, -1, expError},
		{"-2", 1, -1, expError},
		{"1", 10, 0, ""}, // indices are 1-based
		{"-1", 10, 9, ""},
	}

	for idx, s := range specs {
		v, err := selectFaceCoordIndex(s.in, s.listLen)
		if s.expError != "" && (err == nil || err.Error() != s.expError) {
			t.Fatalf("[spec %d] expected error %s; got %v", idx, s.expError, err)
		} else if v != s.out {
			t.Fatalf("[spec %d] expected index to be %d; got %d", idx, s.out, v)
		}
	}
}

func TestParseSingleFacedObject(t *testing.T) {
	payload := `
mtllib scene.mtl
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
vn 1 0 0
vt 0 0
vn 0 1 0
vt 0 1
vn 0 1 0
vt 1 0
vn 0 0 1
# Comment
usemtl stone
f 1/1/1 2/2/2 -1/-1/-1
`

	meshes, err := ReadMeshes(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh to be parsed; got %d", len(meshes))
	}

	mesh := meshes[0]
	if mesh.Name != "testObj" {
		t.Fatalf("expected mesh name to be 'testObj'; got %s", mesh.Name)
	}
	if mesh.TriangleCount() != 1 {
		t.Fatalf("expected mesh to contain 1 triangle; got %d", mesh.TriangleCount())
	}

	expPoints := []types.Vec3{
		{0, 0, 0},
		{1, 0, 0},
		{0, 1, 0},
	}
	for idx, exp := range expPoints {
		if got := mesh.Vertices[mesh.Indices[idx]]; !reflect.DeepEqual(got, exp) {
			t.Fatalf("expected vertex %d to be %v; got %v", idx, exp, got)
		}
	}

	bbox := mesh.BBox()
	if !bbox[0].ApproxEqual(types.Vec3{0, 0, 0}, 1e-3) || !bbox[1].ApproxEqual(types.Vec3{1, 1, 0}, 1e-3) {
		t.Fatalf("unexpected mesh bbox %v", bbox)
	}
}

func TestParseQuadsAndGroups(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 1 0 1
v 0 0 1
f 1 2 3 4
g second
f 1//1 2//1 3//1
vn 0 1 0
g empty
`

	_, err := ReadMeshes(mockResource(payload))
	if err == nil || !strings.Contains(err.Error(), "could not parse normal coord") {
		t.Fatalf("expected a normal index error; got %v", err)
	}

	payload = strings.Replace(payload, "f 1//1 2//1 3//1\nvn 0 1 0", "vn 0 1 0\nf 1//1 2//1 3//1", 1)
	meshes, err := ReadMeshes(mockResource(payload))
	if err != nil {
		t.Fatal(err)
	}

	if len(meshes) != 2 {
		t.Fatalf("expected empty groups to be skipped and 2 meshes to be parsed; got %d", len(meshes))
	}
	if meshes[0].Name != "default" || meshes[0].TriangleCount() != 2 {
		t.Fatalf("expected quad to be split into 2 triangles of the default mesh; got %q with %d", meshes[0].Name, meshes[0].TriangleCount())
	}
	if meshes[1].Name != "second" || meshes[1].TriangleCount() != 1 {
		t.Fatalf("expected mesh 'second' with 1 triangle; got %q with %d", meshes[1].Name, meshes[1].TriangleCount())
	}
}

func TestParseErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{"v 1 2", "[embedded: 1] error: unsupported syntax for 'v'; expected 3 arguments; got 2"},
		{"v 0 0 0\nf 1 1", "[embedded: 2] error: unsupported syntax for 'f'; expected at least 3 arguments; got 2"},
		{"v 0 0 0\nf 1 1/1 1", "[embedded: 2] error: expected each face argument to contain 1 indices; arg 1 contains 2 indices"},
		{"v 0 0 0\nf 1 2 1", "[embedded: 2] error: could not parse vertex coord for face argument 1: index out of bounds"},
		{"v 0 0 0\nf /1 1 1", "[embedded: 2] error: face argument 0 does not include a vertex index"},
		{"o", "[embedded: 1] error: unsupported syntax for 'o'; expected 1 argument for object name; got 0"},
		{"call", "[embedded: 1] error: unsupported syntax for 'call'; expected 1 argument; got 0"},
	}

	for idx, s := range specs {
		_, err := ReadMeshes(mockResource(s.payload))
		if err == nil || err.Error() != s.expError {
			t.Fatalf("[spec %d] expected error %q; got %v", idx, s.expError, err)
		}
	}
}

func TestCallIncludesFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "verts.obj"), []byte("v 0 0 0\nv 1 0 0\nv 0 0 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.obj"), []byte("v 0 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	main := filepath.Join(dir, "main.obj")
	if err := os.WriteFile(main, []byte("o floor\ncall verts.obj\nf 1 2 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := NewResource(main, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Close()

	meshes, err := ReadMeshes(res)
	if err != nil {
		t.Fatal(err)
	}
	if len(meshes) != 1 || meshes[0].TriangleCount() != 1 {
		t.Fatalf("expected included vertices to be usable by faces; got %d meshes", len(meshes))
	}

	if err = os.WriteFile(main, []byte("call broken.obj\n"), 0644); err != nil {
		t.Fatal(err)
	}
	res2, err := NewResource(main, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Close()

	_, err = ReadMeshes(res2)
	if err == nil || !strings.Contains(err.Error(), "referenced from") {
		t.Fatalf("expected error to include the call stack; got %v", err)
	}
}
