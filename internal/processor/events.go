package processor

// EventLogger receives processing events. The processor never prints;
// adapters decide what to show and what to count. Implementations must be
// safe for concurrent use since directories are processed in parallel.
type EventLogger interface {
	FileReceived(path, fileType string)
	FileSkipped(path, reason string)

	BankIdentified(path, bank string)
	BankNotIdentified(path string)
	ExtractionStart(path, extractor string)
	ExtractionComplete(path string, pages, movimientos int)
	FileError(path string, err error)

	ConsolidationStart(files int)
	ConsolidationComplete(outputPath string)
	ValidationMismatch(path, field, expected, actual string)
}

// NopLogger discards every event.
type NopLogger struct{}

func (NopLogger) FileReceived(string, string) {}
func (NopLogger) FileSkipped(string, string) {}
func (NopLogger) BankIdentified(string, string) {}
func (NopLogger) BankNotIdentified(string) {}
func (NopLogger) ExtractionStart(string, string) {}
func (NopLogger) ExtractionComplete(string, int, int) {}
func (NopLogger) FileError(string, error) {}
func (NopLogger) ConsolidationStart(int) {}
func (NopLogger) ConsolidationComplete(string) {}
func (NopLogger) ValidationMismatch(string, string, string, string) {}
