package httpclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestDecodeText(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String("你好\r\n世界")
	require.NoError(t, err)

	tests := []struct {
		name    string
		raw     []byte
		charset string
		want    string
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name:    "given UTF-8, then bytes are kept as they are",
			raw:     []byte("héllo\nworld"),
			charset: "UTF-8",
			want:    "héllo\nworld",
			wantErr: assert.NoError,
		},
		{
			name:    "given an empty charset, then UTF-8 is assumed",
			raw:     []byte("plain"),
			charset: "",
			want:    "plain",
			wantErr: assert.NoError,
		},
		{
			name:    "given GBK, then the body is decoded and line endings are kept",
			raw:     []byte(gbk),
			charset: "GBK",
			want:    "你好\r\n世界",
			wantErr: assert.NoError,
		},
		{
			name:    "given ISO-8859-1, then high bytes map to runes",
			raw:     []byte{0x63, 0x61, 0x66, 0xe9},
			charset: "ISO-8859-1",
			want:    "café",
			wantErr: assert.NoError,
		},
		{
			name:    "given an unknown charset, then an error is returned",
			raw:     []byte("x"),
			charset: "no-such-charset",
			wantErr: assert.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeText(tt.raw, tt.charset)
			tt.wantErr(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
