package extract

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attachment struct {
	filename    string
	contentType string
	data        []byte
}

// buildMessage assembles one mbox message with the given attachments.
func buildMessage(index int, atts ...attachment) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From reporter%d@example.net Thu Jan  1 10:00:00 2026\n", index))
	sb.WriteString("From: reporter@example.net\n")
	sb.WriteString("To: dmarc-rua@example.com\n")
	sb.WriteString(fmt.Sprintf("Subject: Report domain: example.com submitter %d\n", index))
	sb.WriteString("MIME-Version: 1.0\n")

	if len(atts) == 0 {
		sb.WriteString("Content-Type: text/plain\n")
		sb.WriteString("\n")
		sb.WriteString("no attachments here\n")
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString("Content-Type: multipart/mixed; boundary=\"frontier\"\n")
	sb.WriteString("\n")
	sb.WriteString("--frontier\n")
	sb.WriteString("Content-Type: text/plain\n")
	sb.WriteString("\n")
	sb.WriteString("report attached\n")
	for _, a := range atts {
		sb.WriteString("--frontier\n")
		sb.WriteString(fmt.Sprintf("Content-Type: %s\n", a.contentType))
		sb.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\n", a.filename))
		sb.WriteString("Content-Transfer-Encoding: base64\n")
		sb.WriteString("\n")
		sb.WriteString(base64.StdEncoding.EncodeToString(a.data))
		sb.WriteString("\n")
	}
	sb.WriteString("--frontier--\n")
	sb.WriteString("\n")
	return sb.String()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write(data)
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	return buf.Bytes()
}

func zipBytes(t *testing.T, entries []attachment) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.filename)
		require.NoError(t, err)
		_, err = w.Write(e.data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func extractString(t *testing.T, mboxData string) (*Result, string) {
	t.Helper()
	dir := t.TempDir()
	res, err := New(nil).Extract(strings.NewReader(mboxData), dir)
	require.NoError(t, err)
	return res, dir
}

const sampleXML = `<?xml version="1.0"?><feedback><report_metadata><org_name>google.com</org_name></report_metadata></feedback>`

func TestExtract(t *testing.T) {
	t.Run("writes xml attachments directly", func(t *testing.T) {
		mboxData := buildMessage(0, attachment{
			filename:    "report.xml",
			contentType: "text/xml",
			data:        []byte(sampleXML),
		})

		res, _ := extractString(t, mboxData)

		require.Len(t, res.Files, 1)
		assert.Equal(t, 0, res.Skipped)
		assert.Equal(t, "msg0_report.xml", filepath.Base(res.Files[0]))

		content, err := os.ReadFile(res.Files[0])
		require.NoError(t, err)
		assert.Equal(t, sampleXML, string(content))
	})

	t.Run("inflates gzip attachments", func(t *testing.T) {
		mboxData := buildMessage(0, attachment{
			filename:    "report.xml.gz",
			contentType: "application/gzip",
			data:        gzipBytes(t, []byte(sampleXML)),
		})

		res, _ := extractString(t, mboxData)

		require.Len(t, res.Files, 1)
		assert.Equal(t, "msg0_report.xml", filepath.Base(res.Files[0]))

		content, err := os.ReadFile(res.Files[0])
		require.NoError(t, err)
		assert.Equal(t, sampleXML, string(content))
	})

	t.Run("unpacks every xml entry of a zip attachment", func(t *testing.T) {
		payload := zipBytes(t, []attachment{
			{filename: "first.xml", data: []byte(sampleXML)},
			{filename: "second.xml", data: []byte(sampleXML)},
			{filename: "readme.txt", data: []byte("ignored")},
		})
		mboxData := buildMessage(0, attachment{
			filename:    "reports.zip",
			contentType: "application/zip",
			data:        payload,
		})

		res, _ := extractString(t, mboxData)

		require.Len(t, res.Files, 2)
		assert.Equal(t, "msg0_first.xml", filepath.Base(res.Files[0]))
		assert.Equal(t, "msg0_second.xml", filepath.Base(res.Files[1]))
	})

	t.Run("skips corrupt members and keeps going", func(t *testing.T) {
		mboxData := buildMessage(0,
			attachment{
				filename:    "broken.xml.gz",
				contentType: "application/gzip",
				data:        []byte("this is not gzip"),
			},
			attachment{
				filename:    "good.xml",
				contentType: "text/xml",
				data:        []byte(sampleXML),
			},
		)

		res, _ := extractString(t, mboxData)

		assert.Equal(t, 1, res.Skipped)
		require.Len(t, res.Files, 1)
		assert.Equal(t, "msg0_good.xml", filepath.Base(res.Files[0]))
	})

	t.Run("rescues compressed payloads mislabelled as xml", func(t *testing.T) {
		mboxData := buildMessage(0, attachment{
			filename:    "report.xml",
			contentType: "text/xml",
			data:        gzipBytes(t, []byte(sampleXML)),
		})

		res, _ := extractString(t, mboxData)

		require.Len(t, res.Files, 1)
		content, err := os.ReadFile(res.Files[0])
		require.NoError(t, err)
		assert.Equal(t, sampleXML, string(content))
	})

	t.Run("ignores unrelated attachments and plain messages", func(t *testing.T) {
		mboxData := buildMessage(0, attachment{
			filename:    "notes.pdf",
			contentType: "application/pdf",
			data:        []byte("%PDF-1.4"),
		}) + buildMessage(1) + buildMessage(2, attachment{
			filename:    "report.xml",
			contentType: "text/xml",
			data:        []byte(sampleXML),
		})

		res, _ := extractString(t, mboxData)

		assert.Equal(t, 0, res.Skipped)
		require.Len(t, res.Files, 1)
		assert.Equal(t, "msg2_report.xml", filepath.Base(res.Files[0]))
	})

	t.Run("keeps message traversal order", func(t *testing.T) {
		mboxData := buildMessage(0, attachment{
			filename:    "b.xml",
			contentType: "text/xml",
			data:        []byte(sampleXML),
		}) + buildMessage(1, attachment{
			filename:    "a.xml",
			contentType: "text/xml",
			data:        []byte(sampleXML),
		})

		res, _ := extractString(t, mboxData)

		require.Len(t, res.Files, 2)
		// Message order, not filename order.
		assert.Equal(t, "msg0_b.xml", filepath.Base(res.Files[0]))
		assert.Equal(t, "msg1_a.xml", filepath.Base(res.Files[1]))
	})

	t.Run("empty mailbox yields an empty result", func(t *testing.T) {
		res, _ := extractString(t, "")

		assert.Empty(t, res.Files)
		assert.Equal(t, 0, res.Skipped)
	})
}

func TestWriteArchive(t *testing.T) {
	t.Run("repackages documents under their base names", func(t *testing.T) {
		dir := t.TempDir()
		first := filepath.Join(dir, "msg0_a.xml")
		second := filepath.Join(dir, "msg1_b.xml")
		require.NoError(t, os.WriteFile(first, []byte("<feedback/>"), 0o600))
		require.NoError(t, os.WriteFile(second, []byte("<feedback/>"), 0o600))

		var buf bytes.Buffer
		err := WriteArchive([]string{first, second}, &buf)
		require.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		require.Len(t, zr.File, 2)
		assert.Equal(t, "msg0_a.xml", zr.File[0].Name)
		assert.Equal(t, "msg1_b.xml", zr.File[1].Name)

		rc, err := zr.File[0].Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, "<feedback/>", string(content))
	})

	t.Run("skips files that no longer exist", func(t *testing.T) {
		dir := t.TempDir()
		present := filepath.Join(dir, "msg0_a.xml")
		require.NoError(t, os.WriteFile(present, []byte("<feedback/>"), 0o600))

		var buf bytes.Buffer
		err := WriteArchive([]string{filepath.Join(dir, "gone.xml"), present}, &buf)
		require.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
		require.NoError(t, err)
		require.Len(t, zr.File, 1)
	})
}
