package service

// Stats счетчики сервиса построения маршрутов
type Stats struct {
	CalculationCount uint64 // Общее количество вызовов ComputeRoute
	CacheHits        uint64 // Количество ответов из кэша
	CacheSize        int    // Текущее число записей в кэше
	Backend          string // Имя активного бэкенда
	UsingWasm        bool   // Активен ли WASM бэкенд
}
