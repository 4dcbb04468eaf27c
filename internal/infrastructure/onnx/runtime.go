package onnx

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var runtimeMu sync.Mutex

// libraryCandidates места, где обычно лежит libonnxruntime рядом с бинарём
var libraryCandidates = []string{
	"./libonnxruntime.so",
	"./lib/libonnxruntime.so",
	"/usr/local/lib/libonnxruntime.so",
	"/usr/lib/libonnxruntime.so",
	"./libonnxruntime.dylib",
	"./lib/libonnxruntime.dylib",
	"/opt/homebrew/lib/libonnxruntime.dylib",
}

// resolveLibraryPath выбирает путь к shared library рантайма:
// явный путь, затем ONNXRUNTIME_SHARED_LIBRARY_PATH, затем известные места.
func resolveLibraryPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); env != "" {
		return env
	}
	for _, path := range libraryCandidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// initRuntime поднимает окружение ONNX Runtime один раз на процесс.
func initRuntime(libraryPath string) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	// Пустой путь — пусть загрузчик ищет библиотеку в системных путях.
	if path := resolveLibraryPath(libraryPath); path != "" {
		ort.SetSharedLibraryPath(path)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}
	return nil
}
