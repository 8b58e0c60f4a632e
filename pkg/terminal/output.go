package terminal

import (
	"bufio"
	"io"
	"os"
)

// pagingWriter buffers a command's output until the prompt comes back.
type pagingWriter struct {
	w   io.Writer
	out io.Writer
	buf *bufio.Writer
}

func newPagingWriter(w io.Writer) *pagingWriter {
	return &pagingWriter{w: w, out: w}
}

func (pw *pagingWriter) Write(p []byte) (int, error) {
	if pw.buf == nil {
		pw.buf = bufio.NewWriter(pw.w)
	}
	return pw.buf.Write(p)
}

func (pw *pagingWriter) Flush() error {
	if pw.buf == nil {
		return nil
	}
	err := pw.buf.Flush()
	pw.buf = nil
	return err
}

// Reset drops any redirection done by the last command.
func (pw *pagingWriter) Reset() {
	pw.w = pw.out
	pw.buf = nil
}

// transcriptWriter copies everything written to the terminal into an
// optional transcript file.
type transcriptWriter struct {
	pw       *pagingWriter
	file     *os.File
	fileOnly bool
}

func (w *transcriptWriter) Write(p []byte) (int, error) {
	if w.file != nil {
		if _, err := w.file.Write(p); err != nil {
			return 0, err
		}
		if w.fileOnly {
			return len(p), nil
		}
	}
	return w.pw.Write(p)
}

// Echo writes s to the transcript only.
func (w *transcriptWriter) Echo(s string) {
	if w.file != nil {
		w.file.WriteString(s)
	}
}

func (w *transcriptWriter) Flush() {
	w.pw.Flush()
}

func (w *transcriptWriter) OpenTranscript(path string, truncate, fileOnly bool) error {
	if err := w.CloseTranscript(); err != nil {
		return err
	}

	flag := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flag = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return err
	}
	w.file = f
	w.fileOnly = fileOnly
	return nil
}

func (w *transcriptWriter) CloseTranscript() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.fileOnly = false
	return err
}
