package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFilePath(t *testing.T) {
	tests := []struct {
		name string
		fp   string
		want string
	}{
		{name: "empty", fp: "  ", want: ""},
		{name: "already rooted", fp: "/uploads/group_1/a.pdf", want: "/uploads/group_1/a.pdf"},
		{name: "windows separators", fp: `uploads\group_1\a.pdf`, want: "/uploads/group_1/a.pdf"},
		{name: "bare file name", fp: "a.pdf", want: "/uploads/a.pdf"},
		{name: "redundant segments", fp: "uploads//group_1/./a.pdf", want: "/uploads/group_1/a.pdf"},
		{name: "escapes to the api", fp: "../api/auth/me", want: ""},
		{name: "escapes from uploads", fp: `uploads\..\..\etc\passwd`, want: ""},
		{name: "parent inside uploads", fp: "uploads/group_1/../a.pdf", want: ""},
		{name: "uploads root", fp: "/uploads/", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeFilePath(tt.fp))
		})
	}
}
