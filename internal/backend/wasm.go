package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"navi-route-go/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

const (
	findPathExport = "find_path"
	memoryExport   = "memory"

	// maxResultBytes ограничивает поиск терминатора строки результата
	maxResultBytes = 1 << 20
)

// WasmBackend бэкенд на основе скомпилированного WASM модуля.
//
// Модуль экспортирует memory и find_path(f64, f64, f64, f64) -> i32, где результат
// указывает на NUL-терминированный JSON: массив {lat,lng} или объект {"path": [...]}.
// На каждый вызов создается отдельный экземпляр модуля, поэтому вызовы независимы
// и прерванный по таймауту вызов не портит последующие.
type WasmBackend struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	path     string
	logger   *logrus.Logger
}

// LoadWasm читает, компилирует и проверяет модуль по пути path.
// Возвращает ErrArtifactNotFound, если файла нет, и ErrLoad при любой другой ошибке загрузки.
func LoadWasm(ctx context.Context, path string, logger *logrus.Logger) (*WasmBackend, error) {
	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrLoad, path, err)
	}

	return loadWasmBytes(ctx, path, wasmBytes, logger)
}

func loadWasmBytes(ctx context.Context, path string, wasmBytes []byte, logger *logrus.Logger) (*WasmBackend, error) {
	runtime := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfig().WithCloseOnContextDone(true))

	fail := func(err error) (*WasmBackend, error) {
		_ = runtime.Close(ctx)
		return nil, err
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return fail(fmt.Errorf("%w: failed to instantiate WASI: %w", ErrLoad, err))
	}

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fail(fmt.Errorf("%w: failed to compile module: %w", ErrLoad, err))
	}

	if err := checkExports(compiled); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrLoad, err))
	}

	b := &WasmBackend{
		runtime:  runtime,
		compiled: compiled,
		path:     path,
		logger:   logger,
	}

	// Пробное инстанцирование выявляет неразрешенные импорты на старте
	mod, err := b.instantiate(ctx)
	if err != nil {
		return fail(fmt.Errorf("%w: failed to instantiate module: %w", ErrLoad, err))
	}
	_ = mod.Close(ctx)

	logger.Infof("WASM модуль %s успешно загружен", path)
	return b, nil
}

func checkExports(compiled wazero.CompiledModule) error {
	fn, ok := compiled.ExportedFunctions()[findPathExport]
	if !ok {
		return fmt.Errorf("missing export %q", findPathExport)
	}

	params := fn.ParamTypes()
	if len(params) != 4 {
		return fmt.Errorf("%s: expected 4 params, got %d", findPathExport, len(params))
	}
	for _, p := range params {
		if p != api.ValueTypeF64 {
			return fmt.Errorf("%s: expected f64 params, got %s", findPathExport, api.ValueTypeName(p))
		}
	}

	results := fn.ResultTypes()
	if len(results) != 1 || results[0] != api.ValueTypeI32 {
		return fmt.Errorf("%s: expected a single i32 result", findPathExport)
	}

	if _, ok := compiled.ExportedMemories()[memoryExport]; !ok {
		return fmt.Errorf("missing export %q", memoryExport)
	}

	return nil
}

func (b *WasmBackend) instantiate(ctx context.Context) (api.Module, error) {
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize")
	return b.runtime.InstantiateModule(ctx, b.compiled, cfg)
}

// Name возвращает имя бэкенда
func (b *WasmBackend) Name() string { return NameWasm }

// FindPath вызывает find_path модуля. Любая ошибка оборачивается в ErrCall
func (b *WasmBackend) FindPath(ctx context.Context, start, end models.Coordinates) ([]models.Coordinates, error) {
	mod, err := b.instantiate(ctx)
	if err != nil {
		return nil, callError(ctx, fmt.Errorf("failed to instantiate module: %w", err))
	}
	defer mod.Close(context.Background())

	results, err := mod.ExportedFunction(findPathExport).Call(ctx,
		api.EncodeF64(start.Lat), api.EncodeF64(start.Lng),
		api.EncodeF64(end.Lat), api.EncodeF64(end.Lng),
	)
	if err != nil {
		return nil, callError(ctx, err)
	}

	raw, err := readCString(mod.ExportedMemory(memoryExport), api.DecodeU32(results[0]))
	if err != nil {
		return nil, callError(ctx, err)
	}

	path, err := DecodePath(raw)
	if err != nil {
		return nil, callError(ctx, err)
	}

	return path, nil
}

// Close освобождает среду исполнения
func (b *WasmBackend) Close(ctx context.Context) error {
	return b.runtime.Close(ctx)
}

func callError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w: %w", ErrCall, ctxErr, err)
	}
	return fmt.Errorf("%w: %w", ErrCall, err)
}

// readCString читает NUL-терминированную строку из памяти модуля
func readCString(mem api.Memory, ptr uint32) ([]byte, error) {
	if mem == nil {
		return nil, errors.New("module has no memory")
	}

	size := mem.Size()
	if ptr >= size {
		return nil, fmt.Errorf("result pointer %d out of bounds (memory size %d)", ptr, size)
	}

	n := size - ptr
	if n > maxResultBytes {
		n = maxResultBytes
	}

	buf, ok := mem.Read(ptr, n)
	if !ok {
		return nil, fmt.Errorf("failed to read %d bytes at %d", n, ptr)
	}

	end := bytes.IndexByte(buf, 0)
	if end < 0 {
		return nil, errors.New("result string is not NUL-terminated")
	}

	out := make([]byte, end)
	copy(out, buf[:end])
	return out, nil
}

// DecodePath разбирает ответ бэкенда: массив точек или объект {"path": [...]}
func DecodePath(raw []byte) ([]models.Coordinates, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("empty result")
	}

	var path []models.Coordinates
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &path); err != nil {
			return nil, fmt.Errorf("failed to decode path: %w", err)
		}
	case '{':
		var envelope struct {
			Path []models.Coordinates `json:"path"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode path: %w", err)
		}
		path = envelope.Path
	default:
		return nil, fmt.Errorf("unexpected result %q", truncate(raw, 64))
	}

	if len(path) == 0 {
		return nil, errors.New("result path is empty")
	}
	return path, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
