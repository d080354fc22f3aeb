// Package owo uploads text dumps to a file host so modlog embeds can link
// to long logs instead of attaching them.
package owo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

const uploadURL = "https://api.awau.moe/upload/pomf"

type Client struct {
	token  string
	client *http.Client
}

func NewClient(token string) *Client {
	return &Client{
		token:  token,
		client: &http.Client{},
	}
}

type uploadResult struct {
	Success     bool   `json:"success"`
	Description string `json:"description"`
	Files       []struct {
		Hash string `json:"hash"`
		Name string `json:"name"`
		URL  string `json:"url"`
		Size int    `json:"size"`
	} `json:"files"`
}

// Upload posts the text as a .txt file and returns a public link to it.
func (c *Client) Upload(text string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files[]"; filename="text.txt"`)
	h.Set("Content-Type", "text/plain;charset=utf-8")

	part, err := writer.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, bytes.NewReader([]byte(text))); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequest("POST", uploadURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", c.token)

	res, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	var result uploadResult
	if err := json.Unmarshal(resBody, &result); err != nil {
		return "", err
	}

	if !result.Success {
		return "", errors.New(result.Description)
	}
	if len(result.Files) == 0 {
		return "", errors.New("upload succeeded but no file was returned")
	}
	return "https://owo.whats-th.is/" + result.Files[0].URL, nil
}
