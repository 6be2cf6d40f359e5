package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hassankhurram/chatbot-gemini/internal/client/api"
	"github.com/hassankhurram/chatbot-gemini/internal/common"
	"github.com/hassankhurram/chatbot-gemini/internal/netx"
)

// readFile is a test seam for os.ReadFile.
var readFile = os.ReadFile

// Attach uploads a local file to object storage through a presigned URL and
// queues it as an attachment for the next chat message.
func (a *App) Attach(ctx context.Context) error {

	if !a.isLoggedIn() {
		printlnFn("Please login first")
		return nil
	}

	path, err := GetSimpleText(a.reader, "Enter file path", a.out)
	if err != nil {
		printlnFn(fmt.Sprintf("error: %v", err))
		return err
	}

	data, err := readFile(path)
	if err != nil {
		printlnFn(fmt.Sprintf("Could not read file: %v", err))
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	presigned, err := a.client.Presign(ctx, a.session.Token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			printlnFn("Session expired, please login again")
			a.dropSession()
			return err
		}
		printlnFn(fmt.Sprintf("Attach failed: %v", err))
		return err
	}

	if err := netx.UploadToPresignedURL(presigned.URL, contentType, data); err != nil {
		printlnFn(fmt.Sprintf("Upload failed: %v", err))
		return err
	}

	a.pending = append(a.pending, api.Attachment{
		Name:        filepath.Base(path),
		ContentType: contentType,
		URL:         presigned.DownloadURL,
	})

	printlnFn(fmt.Sprintf("Attached %s; it will be sent with your next message", filepath.Base(path)))
	return nil
}
