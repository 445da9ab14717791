package dto

// SyncEstadoResponse reports the engine's last cycle to the UI.
type SyncEstadoResponse struct {
	Online      bool     `json:"online"`
	EnCurso     bool     `json:"en_curso"`
	UltimoCiclo *string  `json:"ultimo_ciclo,omitempty"`
	DuracionMs  int64    `json:"duracion_ms"`
	Errores     []string `json:"errores,omitempty"`
}

type HealthResponse struct {
	Status        string `json:"status"`
	SchemaVersion int    `json:"schema_version"`
	Online        bool   `json:"online"`
	AFIPBreaker   string `json:"afip_breaker"`
}
