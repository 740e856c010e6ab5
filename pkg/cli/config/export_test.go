package config

// NewPersonaForTest creates a Persona config for testing purposes
func NewPersonaForTest(path string) *Persona {
	return &Persona{path: path}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{level: level, format: format, output: output}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, dsn string) *Repository {
	return &Repository{backend: backend, dsn: dsn}
}
