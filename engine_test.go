package rebrander_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rebrander "github.com/thrawn01/rebrander"
)

func testEngineConfig() *rebrander.Config {
	config := rebrander.DefaultConfig()
	config.Package = rebrander.MappingPair{Old: "com.carriez.flutter_hbb", New: "com.celonis.work"}
	config.AppName = rebrander.MappingPair{Old: "RustDesk", New: "ToddDesk"}
	config.Scheme = rebrander.MappingPair{Old: "rustdesk", New: "todddesk"}
	config.ServiceClass = rebrander.MappingPair{Old: "InputService", New: "ToddService"}
	config.Description = rebrander.MappingPair{Old: "Allows remote input control", New: "Made by Todd"}
	config.SourceRoot = "app/src/main/kotlin"
	config.ProtectedLiterals = []string{`System.loadLibrary("rustdesk")`, "librustdesk.so"}
	config.ResourceOverrides = map[string]string{"app_name": "ToddDesk"}
	return config
}

func writeProjectTree(t *testing.T, root string) {
	t.Helper()
	writeTree(t, root, map[string]string{
		"build.gradle": "android {\n    defaultConfig {\n        applicationId \"com.carriez.flutter_hbb\"\n    }\n}\n",
		"app/src/main/AndroidManifest.xml": `<manifest package="com.carriez.flutter_hbb">
    <service android:name=".InputService"/>
    <data android:scheme="rustdesk"/>
</manifest>
`,
		"app/src/main/res/values/strings.xml": `<resources>
    <string name="app_name">RustDesk</string>
    <string name="accessibility_service_description">Allows remote input control</string>
</resources>
`,
		"app/src/main/kotlin/com/carriez/flutter_hbb/MainActivity.kt": `package com.carriez.flutter_hbb

class MainActivity {
    init {
        System.loadLibrary("rustdesk")
    }
}
`,
		"app/src/main/kotlin/com/carriez/flutter_hbb/InputService.kt": `package com.carriez.flutter_hbb

class InputService {}
`,
		"app/src/main/kotlin/com/carriez/flutter_hbb/sub/Util.kt": "package com.carriez.flutter_hbb.sub\n",
	})
}

func TestEngineApplyE2e(t *testing.T) {
	tempDir := t.TempDir()
	writeProjectTree(t, tempDir)

	engine, err := rebrander.NewEngine(testEngineConfig())
	require.NoError(t, err)

	ctx := context.Background()
	report, err := engine.Run(ctx, tempDir, false)
	require.NoError(t, err)
	require.NotNil(t, report)

	t.Run("ReportCompleteness", func(t *testing.T) {
		assert.False(t, report.Partial)
		assert.Equal(t, rebrander.PhaseReporting, report.Phase)
		assert.Equal(t, len(report.ChangedFiles), report.ChangedFilesCount)
		assert.Equal(t, 6, report.ChangedFilesCount)

		seen := make(map[string]bool)
		for _, file := range report.ChangedFiles {
			assert.False(t, seen[file], "duplicate changed file %s", file)
			seen[file] = true
		}
		assert.Empty(t, report.Warnings)
		assert.Empty(t, report.FileErrors)
	})

	t.Run("BuildScriptRewritten", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(tempDir, "build.gradle"))
		require.NoError(t, err)
		assert.Contains(t, string(data), `applicationId "com.celonis.work"`)
		assert.NotContains(t, string(data), "com.carriez.flutter_hbb")
	})

	t.Run("ManifestRewritten", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(tempDir, "app", "src", "main", "AndroidManifest.xml"))
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, `package="com.celonis.work"`)
		assert.Contains(t, content, `android:name=".ToddService"`)
		assert.Contains(t, content, `android:scheme="todddesk"`)
	})

	t.Run("ResourcesRewritten", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(tempDir, "app", "src", "main", "res", "values", "strings.xml"))
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, `<string name="app_name">ToddDesk</string>`)
		assert.Contains(t, content, `<string name="accessibility_service_description">Made by Todd</string>`)
	})

	t.Run("DirectoryMoved", func(t *testing.T) {
		require.NotNil(t, report.DirectoryMove)
		newRoot := filepath.Join(tempDir, "app", "src", "main", "kotlin", "com", "celonis", "work")
		assert.Equal(t, newRoot, report.DirectoryMove.NewRoot)
		assert.FileExists(t, filepath.Join(newRoot, "MainActivity.kt"))
		assert.FileExists(t, filepath.Join(newRoot, "InputService.kt"))
		assert.FileExists(t, filepath.Join(newRoot, "sub", "Util.kt"))
		assert.NoDirExists(t, filepath.Join(tempDir, "app", "src", "main", "kotlin", "com", "carriez"))
	})

	t.Run("ProtectedLiteralSurvives", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(tempDir, "app", "src", "main", "kotlin", "com", "celonis", "work", "MainActivity.kt"))
		require.NoError(t, err)
		content := string(data)
		assert.Contains(t, content, "package com.celonis.work")
		assert.Contains(t, content, `System.loadLibrary("rustdesk")`)
	})

	t.Run("ServiceClassRenamedInSource", func(t *testing.T) {
		data, err := os.ReadFile(filepath.Join(tempDir, "app", "src", "main", "kotlin", "com", "celonis", "work", "InputService.kt"))
		require.NoError(t, err)
		assert.Contains(t, string(data), "class ToddService")
	})

	t.Run("SecondRunIsIdempotent", func(t *testing.T) {
		second, err := engine.Run(ctx, tempDir, false)
		require.NoError(t, err)
		assert.Equal(t, 0, second.ChangedFilesCount)
		assert.Empty(t, second.ChangedFiles)
		assert.Nil(t, second.DirectoryMove)
		assert.Empty(t, second.Warnings)
		assert.False(t, second.Partial)
	})
}

func TestEngineDryRun(t *testing.T) {
	tempDir := t.TempDir()
	writeProjectTree(t, tempDir)

	engine, err := rebrander.NewEngine(testEngineConfig())
	require.NoError(t, err)

	report, err := engine.Run(context.Background(), tempDir, true)
	require.NoError(t, err)

	assert.Equal(t, 6, report.ChangedFilesCount)
	require.NotNil(t, report.DirectoryMove)
	assert.Len(t, report.DirectoryMove.SubPaths, 3)

	// Nothing on disk changed.
	data, err := os.ReadFile(filepath.Join(tempDir, "build.gradle"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "com.carriez.flutter_hbb")
	assert.DirExists(t, filepath.Join(tempDir, "app", "src", "main", "kotlin", "com", "carriez", "flutter_hbb"))
}

func TestEngineInvalidMappingAbortsPreFlight(t *testing.T) {
	config := testEngineConfig()
	config.Package = rebrander.MappingPair{Old: "singlesegment", New: "com.celonis.work"}

	_, err := rebrander.NewEngine(config)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rebrander.ErrInvalidMapping))
	assert.Equal(t, "InvalidMapping", rebrander.FatalKind(err))
}

func TestEngineRelocationSourceMissing(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"build.gradle": "applicationId \"com.carriez.flutter_hbb\"\n",
	})

	engine, err := rebrander.NewEngine(testEngineConfig())
	require.NoError(t, err)

	report, err := engine.Run(context.Background(), tempDir, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rebrander.ErrRelocationSourceMissing))

	// The rewrite already committed; a fixed retry can go straight to
	// relocation without redoing substitution.
	require.NotNil(t, report)
	assert.True(t, report.Partial)
	assert.Equal(t, rebrander.PhaseRelocating, report.Phase)
	assert.Equal(t, 1, report.ChangedFilesCount)

	data, err := os.ReadFile(filepath.Join(tempDir, "build.gradle"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "com.celonis.work")
}

func TestEngineRelocationConflict(t *testing.T) {
	tempDir := t.TempDir()
	writeProjectTree(t, tempDir)
	writeTree(t, tempDir, map[string]string{
		"app/src/main/kotlin/com/celonis/work/Existing.kt": "package com.celonis.work\n",
	})

	engine, err := rebrander.NewEngine(testEngineConfig())
	require.NoError(t, err)

	report, err := engine.Run(context.Background(), tempDir, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rebrander.ErrRelocationConflict))
	assert.True(t, report.Partial)
	assert.Equal(t, rebrander.PhaseRelocating, report.Phase)

	// No move happened; both roots still hold their files.
	assert.DirExists(t, filepath.Join(tempDir, "app", "src", "main", "kotlin", "com", "carriez", "flutter_hbb"))
	assert.FileExists(t, filepath.Join(tempDir, "app", "src", "main", "kotlin", "com", "celonis", "work", "Existing.kt"))
}

func TestEngineInconsistentServiceReference(t *testing.T) {
	tempDir := t.TempDir()
	writeTree(t, tempDir, map[string]string{
		"app/src/main/AndroidManifest.xml": `<manifest package="com.carriez.flutter_hbb">
    <service android:name=".InputService"/>
</manifest>
`,
		// No source file declares the service class at all.
		"app/src/main/kotlin/com/carriez/flutter_hbb/MainActivity.kt": "package com.carriez.flutter_hbb\n\nclass MainActivity {}\n",
	})

	engine, err := rebrander.NewEngine(testEngineConfig())
	require.NoError(t, err)

	report, err := engine.Run(context.Background(), tempDir, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rebrander.ErrInconsistentServiceReference))
	assert.Equal(t, "InconsistentServiceReference", rebrander.FatalKind(err))

	// The failure is loud but late: the move already happened.
	require.NotNil(t, report)
	assert.True(t, report.Partial)
	assert.Equal(t, rebrander.PhaseValidating, report.Phase)
	assert.NotNil(t, report.DirectoryMove)
}

func TestEngineResidualReferenceIsWarning(t *testing.T) {
	tempDir := t.TempDir()
	writeProjectTree(t, tempDir)
	writeTree(t, tempDir, map[string]string{
		// An occurrence the boundary rule refuses to rewrite: the old
		// package is a strict prefix of an unrelated identifier.
		"notes.md": "see com.carriez.flutter_hbbx for the fork\n",
	})

	engine, err := rebrander.NewEngine(testEngineConfig())
	require.NoError(t, err)

	report, err := engine.Run(context.Background(), tempDir, false)
	require.NoError(t, err)

	assert.False(t, report.Partial)
	require.NotEmpty(t, report.Warnings)
	assert.Contains(t, report.Warnings[0], "notes.md")
	assert.Contains(t, report.Warnings[0], "com.carriez.flutter_hbb")
}

func TestEngineExplicitFileSet(t *testing.T) {
	tempDir := t.TempDir()
	writeProjectTree(t, tempDir)

	config := testEngineConfig()
	config.ServiceClass = rebrander.MappingPair{}
	config.Files = []string{"build.gradle"}

	engine, err := rebrander.NewEngine(config)
	require.NoError(t, err)

	report, err := engine.Run(context.Background(), tempDir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"build.gradle"}, report.ChangedFiles)

	// Out-of-scope files stay untouched even though they match.
	data, err := os.ReadFile(filepath.Join(tempDir, "app", "src", "main", "kotlin", "com", "celonis", "work", "MainActivity.kt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "package com.carriez.flutter_hbb")
}

func TestEngineLoadBearingFileAbortsBeforeMove(t *testing.T) {
	for _, tt := range []struct {
		name string
		path string
	}{
		{"DeclaringSource", "app/src/main/kotlin/com/carriez/flutter_hbb/InputService.kt"},
		{"Manifest", "app/src/main/AndroidManifest.xml"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			writeProjectTree(t, tempDir)

			// A directory in place of the file makes the read fail.
			broken := filepath.Join(tempDir, filepath.FromSlash(tt.path))
			require.NoError(t, os.Remove(broken))
			require.NoError(t, os.Mkdir(broken, 0o755))

			config := testEngineConfig()
			config.Files = []string{
				"build.gradle",
				"app/src/main/AndroidManifest.xml",
				"app/src/main/kotlin/com/carriez/flutter_hbb/InputService.kt",
			}

			engine, err := rebrander.NewEngine(config)
			require.NoError(t, err)

			report, err := engine.Run(context.Background(), tempDir, false)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "load-bearing")

			require.NotNil(t, report)
			assert.True(t, report.Partial)
			assert.Equal(t, rebrander.PhaseRewriting, report.Phase)
			assert.Nil(t, report.DirectoryMove)

			// The tree must be untouched: no partial rewrite, no move.
			data, err := os.ReadFile(filepath.Join(tempDir, "build.gradle"))
			require.NoError(t, err)
			assert.Contains(t, string(data), "com.carriez.flutter_hbb")
			assert.DirExists(t, filepath.Join(tempDir,
				"app", "src", "main", "kotlin", "com", "carriez", "flutter_hbb"))
		})
	}
}
