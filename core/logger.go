package core

// Logger is implemented by the logging services.
// args may hold errors, maps of extras and at most one Person.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Person identifies the student a log entry relates to.
type Person struct {
	ID       string
	Username string
}
