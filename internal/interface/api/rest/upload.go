package rest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gin-gonic/gin"

	"filedrive/internal/common"
	"filedrive/internal/domain/file"
)

const (
	maxFieldSize = 1 << 10
	// contentLengthSlack covers multipart framing around the file part.
	contentLengthSlack = 2000
)

var (
	errNoFilePart   = fmt.Errorf("%w: file is required", common.ErrInvalidInput)
	errBadMultipart = fmt.Errorf("%w: expected multipart/form-data", common.ErrInvalidInput)
	errFileTooLarge = fmt.Errorf("%w: file is larger than the upload limit", common.ErrResourceExhausted)
	errNoSpace      = fmt.Errorf("%w: not enough free space for this upload", common.ErrResourceExhausted)
)

// receiveUpload streams the "file" part of a multipart request into tmpDir
// and collects the remaining parts as short text fields. Nothing is left in
// tmpDir when it returns an error.
func receiveUpload(c *gin.Context, tmpDir string, maxBytes int64) (file.Incoming, map[string]string, error) {
	var in file.Incoming
	fields := make(map[string]string)

	mr, err := c.Request.MultipartReader()
	if err != nil {
		return in, nil, errBadMultipart
	}

	fail := func(err error) (file.Incoming, map[string]string, error) {
		if in.TempPath != "" {
			_ = os.Remove(in.TempPath)
		}
		return file.Incoming{}, nil, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("%w: read multipart: %w", common.ErrInvalidInput, err))
		}

		switch {
		case part.FormName() == "file" && in.TempPath == "":
			tmp, err := os.CreateTemp(tmpDir, "upload-*")
			if err != nil {
				part.Close()
				return fail(fmt.Errorf("%w: create temp upload: %w", common.ErrIOFailure, err))
			}
			in.TempPath = tmp.Name()

			n, err := io.Copy(tmp, io.LimitReader(part, maxBytes+1))
			if cerr := tmp.Close(); err == nil {
				err = cerr
			}
			part.Close()
			if err != nil {
				return fail(fmt.Errorf("%w: receive upload: %w", common.ErrIOFailure, err))
			}
			if n > maxBytes {
				return fail(errFileTooLarge)
			}

			in.Size = n
			in.OriginalName = part.FileName()
			in.ContentType = part.Header.Get("Content-Type")
		default:
			b, err := io.ReadAll(io.LimitReader(part, maxFieldSize+1))
			part.Close()
			if err != nil {
				return fail(fmt.Errorf("%w: read field: %w", common.ErrInvalidInput, err))
			}
			if len(b) > maxFieldSize {
				return fail(fmt.Errorf("%w: field %q is too long", common.ErrInvalidInput, part.FormName()))
			}
			if _, seen := fields[part.FormName()]; !seen {
				fields[part.FormName()] = string(b)
			}
		}
	}

	if in.TempPath == "" {
		return fail(errNoFilePart)
	}

	in.DisplayName = fields["filename"]

	return in, fields, nil
}

// precheckSize refuses a request whose declared length can never fit. The
// check is advisory; the quota ledger decides.
func precheckSize(c *gin.Context, maxBytes, available int64) error {
	cl := c.Request.ContentLength
	if cl <= 0 {
		return nil
	}
	if cl > maxBytes+contentLengthSlack {
		return errFileTooLarge
	}
	if available >= 0 && cl > available+contentLengthSlack {
		return errNoSpace
	}

	return nil
}
