package telemetry

import "github.com/insightdelivered/bank-parser/internal/processor"

// Multi forwards every event to each logger in order.
type Multi []processor.EventLogger

var _ processor.EventLogger = Multi(nil)

func (m Multi) FileReceived(path, fileType string) {
	for _, l := range m {
		l.FileReceived(path, fileType)
	}
}

func (m Multi) FileSkipped(path, reason string) {
	for _, l := range m {
		l.FileSkipped(path, reason)
	}
}

func (m Multi) BankIdentified(path, bank string) {
	for _, l := range m {
		l.BankIdentified(path, bank)
	}
}

func (m Multi) BankNotIdentified(path string) {
	for _, l := range m {
		l.BankNotIdentified(path)
	}
}

func (m Multi) ExtractionStart(path, extractor string) {
	for _, l := range m {
		l.ExtractionStart(path, extractor)
	}
}

func (m Multi) ExtractionComplete(path string, pages, movimientos int) {
	for _, l := range m {
		l.ExtractionComplete(path, pages, movimientos)
	}
}

func (m Multi) FileError(path string, err error) {
	for _, l := range m {
		l.FileError(path, err)
	}
}

func (m Multi) ConsolidationStart(files int) {
	for _, l := range m {
		l.ConsolidationStart(files)
	}
}

func (m Multi) ConsolidationComplete(outputPath string) {
	for _, l := range m {
		l.ConsolidationComplete(outputPath)
	}
}

func (m Multi) ValidationMismatch(path, field, expected, actual string) {
	for _, l := range m {
		l.ValidationMismatch(path, field, expected, actual)
	}
}
