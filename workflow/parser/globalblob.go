package parser

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/jobflow-io/jobflow/workflow"
)

// The resolved GlobalDefaults travel between cooperating parses (parent
// workflow to sub-workflow) as an opaque string blob in the job properties.
// The encoding is internal: compressed JSON wrapped in base64.

func encodeGlobalDefaults(gd *GlobalDefaults) (string, error) {
	raw, err := json.Marshal(gd)
	if err != nil {
		return "", workflow.WrapError(workflow.ErrCodeParse, err, "encode global defaults")
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return "", workflow.WrapError(workflow.ErrCodeParse, err, "encode global defaults")
	}
	if err := zw.Close(); err != nil {
		return "", workflow.WrapError(workflow.ErrCodeParse, err, "encode global defaults")
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decodeGlobalDefaults(blob string) (*GlobalDefaults, error) {
	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return nil, workflow.WrapError(workflow.ErrCodeParse, err, "decode global defaults")
	}
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, workflow.WrapError(workflow.ErrCodeParse, err, "decode global defaults")
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, workflow.WrapError(workflow.ErrCodeParse, err, "decode global defaults")
	}
	gd := &GlobalDefaults{}
	if err := json.Unmarshal(raw, gd); err != nil {
		return nil, workflow.WrapError(workflow.ErrCodeParse, err, "decode global defaults")
	}
	return gd, nil
}
