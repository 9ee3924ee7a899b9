package javasrc

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"serialguard/internal/core/errors"
	"serialguard/internal/core/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, dir, rel, src string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func classesOf(t *testing.T, m *Model, path string) []ports.ClassDeclaration {
	t.Helper()
	var out []ports.ClassDeclaration
	require.NoError(t, m.Read(func(view ports.StructureView) error {
		var err error
		out, err = view.Classes(path)
		return err
	}))
	return out
}

func TestModel_CrossFileSupertype(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "com/acme/AnnotatedBase.java", `package com.acme;
import com.brotech.Autoserializable;
@Autoserializable
public class AnnotatedBase {}
`)
	fooPath := writeSource(t, dir, "com/acme/sub/Foo.java", `package com.acme.sub;
import com.acme.AnnotatedBase;
public class Foo extends AnnotatedBase {}
`)
	writeSource(t, dir, "build/Generated.java", "class Generated {}")
	writeSource(t, dir, "README.md", "# not java")

	m := NewModel(nil, []string{"java"})
	n, err := m.LoadTree(context.Background(), []string{dir}, func(path string, isDir bool) bool {
		return isDir && filepath.Base(path) == "build"
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, m.Files(), 2)

	err = m.Read(func(view ports.StructureView) error {
		classes, err := view.Classes(fooPath)
		require.NoError(t, err)
		require.Len(t, classes, 1)

		super, ok := classes[0].Supertype()
		require.True(t, ok)
		assert.Equal(t, "com.acme.AnnotatedBase", super.QualifiedName())
		assert.Equal(t, []string{"com.brotech.Autoserializable"}, super.Annotations())

		_, ok = super.Supertype()
		assert.False(t, ok)

		assert.Len(t, view.AllClasses(), 2)
		return nil
	})
	require.NoError(t, err)
}

func TestModel_ExternalSupertype(t *testing.T) {
	m := NewModel(nil, nil)
	_, err := m.Update("/src/Foo.java", []byte("import org.lib.Base;\nclass Foo extends Base {}\nclass Bar extends Object {}"))
	require.NoError(t, err)

	classes := classesOf(t, m, "/src/Foo.java")
	require.Len(t, classes, 2)
	m.Read(func(ports.StructureView) error {
		super, ok := classes[0].Supertype()
		require.True(t, ok)
		assert.Equal(t, "org.lib.Base", super.QualifiedName())
		assert.Empty(t, super.Annotations())

		super, ok = classes[1].Supertype()
		require.True(t, ok)
		assert.Equal(t, "Object", super.QualifiedName())
		return nil
	})
}

func TestModel_TouchReparsesAndBumpsRevision(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "Foo.java", "public class Foo {}")

	m := NewModel(nil, nil)
	m.Touch(path)
	classes := classesOf(t, m, path)
	require.Len(t, classes, 1)
	assert.Empty(t, classes[0].Annotations())
	first := m.Revision()
	assert.NotZero(t, first)

	// Unchanged content leaves the revision alone.
	m.Touch(path)
	classesOf(t, m, path)
	assert.Equal(t, first, m.Revision())

	writeSource(t, dir, "Foo.java", "@Autoserializable public class Foo {}")
	m.Touch(path)
	classes = classesOf(t, m, path)
	assert.Equal(t, []string{"Autoserializable"}, classes[0].Annotations())
	assert.Greater(t, m.Revision(), first)

	// A deleted file is dropped on the next read.
	require.NoError(t, os.Remove(path))
	m.Touch(path)
	err := m.Read(func(view ports.StructureView) error {
		_, err := view.Classes(path)
		return err
	})
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestModel_NotParseable(t *testing.T) {
	m := NewModel(nil, nil)

	_, err := m.Update("/src/notes.txt", []byte("Autoserializable"))
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrNotParseable))
	assert.True(t, errors.IsCode(err, errors.CodeNotParseable))

	err = m.Read(func(view ports.StructureView) error {
		_, err := view.Classes("/src/notes.txt")
		return err
	})
	assert.True(t, stderrors.Is(err, ErrNotParseable))

	m.Touch("/src/notes.txt")
	assert.Zero(t, m.Revision())
}

func TestModel_ForgetAndDuplicates(t *testing.T) {
	m := NewModel(nil, nil)
	_, err := m.Update("/a/Dup.java", []byte("package p; class Dup {}"))
	require.NoError(t, err)
	_, err = m.Update("/b/Dup.java", []byte("package p; @Autoserializable class Dup {}"))
	require.NoError(t, err)
	_, err = m.Update("/c/User.java", []byte("package p; class User extends Dup {}"))
	require.NoError(t, err)

	before := m.Revision()
	m.Forget("/a/Dup.java")
	assert.Greater(t, m.Revision(), before)

	classes := classesOf(t, m, "/c/User.java")
	m.Read(func(ports.StructureView) error {
		super, ok := classes[0].Supertype()
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(super.ID(), "/b/Dup.java#"))
		return nil
	})

	// Forgetting an unknown path is a no-op.
	rev := m.Revision()
	m.Forget("/nowhere/X.java")
	assert.Equal(t, rev, m.Revision())
}
