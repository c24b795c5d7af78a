// Package extract recovers DMARC report documents from an mbox archive.
package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-mbox"
	"github.com/jhillyerd/enmime"
	"go.uber.org/zap"
)

// Result describes one extraction run.
type Result struct {
	// Files holds the extracted report files in message order, then part
	// order within each message.
	Files []string

	// Skipped counts attachments that looked like report material but could
	// not be inflated. The run continues past them.
	Skipped int
}

// Extractor writes report attachments from an mbox stream into a scratch
// directory. The caller owns the directory and its cleanup.
type Extractor struct {
	log *zap.Logger
}

// New creates an Extractor. A nil logger disables logging.
func New(log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{log: log}
}

// Extract walks every message in the mbox stream and writes each report
// attachment into dir. Gzip members are inflated and zip members unpacked
// so the result is a flat set of XML documents. A failure on one attachment
// never aborts the walk.
func (e *Extractor) Extract(r io.Reader, dir string) (*Result, error) {
	res := &Result{}

	mr := mbox.NewReader(r)
	for i := 0; ; i++ {
		msg, err := mr.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, fmt.Errorf("reading mbox message %d: %w", i, err)
		}

		env, err := enmime.ReadEnvelope(msg)
		if err != nil {
			e.log.Debug("skipping unreadable message",
				zap.Int("message", i),
				zap.Error(err))
			continue
		}

		e.extractMessage(res, env, dir, i)
	}

	return res, nil
}

func (e *Extractor) extractMessage(res *Result, env *enmime.Envelope, dir string, msgIndex int) {
	// enmime flattens the MIME tree; reporters attach reports as proper
	// attachments, inline parts, or unclassified parts depending on the MUA.
	parts := make([]*enmime.Part, 0, len(env.Attachments)+len(env.Inlines)+len(env.OtherParts))
	parts = append(parts, env.Attachments...)
	parts = append(parts, env.Inlines...)
	parts = append(parts, env.OtherParts...)

	for _, p := range parts {
		if p.FileName == "" {
			continue
		}

		files, err := e.writeAttachment(dir, msgIndex, p.FileName, p.Content)
		if err != nil {
			res.Skipped++
			e.log.Debug("skipping attachment",
				zap.Int("message", msgIndex),
				zap.String("filename", p.FileName),
				zap.Error(err))
			continue
		}
		res.Files = append(res.Files, files...)
	}
}

// writeAttachment classifies one attachment by extension and writes the
// XML document(s) it carries. Attachments with unrelated extensions yield
// no files and no error.
func (e *Extractor) writeAttachment(dir string, msgIndex int, filename string, payload []byte) ([]string, error) {
	lower := strings.ToLower(filename)

	switch {
	case strings.HasSuffix(lower, ".xml"):
		// Some reporters mislabel compressed payloads as .xml; rescue them
		// by magic number.
		switch {
		case isGzip(payload):
			return e.writeGzip(dir, msgIndex, filename, payload)
		case isZip(payload):
			return e.writeZip(dir, msgIndex, payload)
		default:
			path, err := writeScratchFile(dir, msgIndex, filename, payload)
			if err != nil {
				return nil, err
			}
			return []string{path}, nil
		}

	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".gzip"):
		return e.writeGzip(dir, msgIndex, filename, payload)

	case strings.HasSuffix(lower, ".zip"):
		return e.writeZip(dir, msgIndex, payload)

	default:
		return nil, nil
	}
}

func (e *Extractor) writeGzip(dir string, msgIndex int, filename string, payload []byte) ([]string, error) {
	data, err := decompressGzip(payload)
	if err != nil {
		return nil, err
	}

	path, err := writeScratchFile(dir, msgIndex, trimLastExt(filename), data)
	if err != nil {
		return nil, err
	}
	return []string{path}, nil
}

func (e *Extractor) writeZip(dir string, msgIndex int, payload []byte) ([]string, error) {
	entries, err := unpackZip(payload)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		path, err := writeScratchFile(dir, msgIndex, filepath.Base(entry.name), entry.data)
		if err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	return files, nil
}

// writeScratchFile writes data to dir under a deterministic name derived
// from the message index and the original attachment filename.
func writeScratchFile(dir string, msgIndex int, filename string, data []byte) (string, error) {
	name := fmt.Sprintf("msg%d_%s", msgIndex, filepath.Base(filename))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return path, nil
}

// trimLastExt strips the final extension, turning report.xml.gz into
// report.xml.
func trimLastExt(filename string) string {
	if ext := filepath.Ext(filename); ext != "" {
		return strings.TrimSuffix(filename, ext)
	}
	return filename
}
