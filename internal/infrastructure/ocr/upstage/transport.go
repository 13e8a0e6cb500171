package upstage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/kirillkom/mood-builder/internal/infrastructure/resilience"
)

const maxResponseBytes = 64 << 20

// Fixed digitization parameters: html+text output, tables as base64, automatic
// OCR and layout coordinates.
var formFields = [][2]string{
	{"output_formats", `["html","text"]`},
	{"base64_encoding", `["table"]`},
	{"ocr", "auto"},
	{"coordinates", "true"},
}

func (c *Client) postDocument(ctx context.Context, fileName, mimeType string, data []byte) ([]byte, error) {
	body, contentType, err := c.buildMultipart(fileName, mimeType, data)
	if err != nil {
		return nil, fmt.Errorf("build document-parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/document-digitization", body)
	if err != nil {
		return nil, fmt.Errorf("create document-parse request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstage document-parse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, formatUpstageHTTPError(resp)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read document-parse response: %w", err)
	}
	return raw, nil
}

func (c *Client) buildMultipart(fileName, mimeType string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename=%q`, fileName))
	if strings.TrimSpace(mimeType) != "" {
		header.Set("Content-Type", mimeType)
	} else {
		header.Set("Content-Type", "application/octet-stream")
	}
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}

	for _, field := range formFields {
		if err := writer.WriteField(field[0], field[1]); err != nil {
			return nil, "", err
		}
	}
	if err := writer.WriteField("model", c.model); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func formatUpstageHTTPError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return &resilience.StatusError{
		Provider:   "Upstage",
		Operation:  parseOperation,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}
