package object

import "testing"

func TestParseURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		want    Location
		wantErr bool
	}{
		{name: "bucket and key", in: "s3://bucket/input/ad.png", want: Location{Bucket: "bucket", Key: "input/ad.png"}},
		{name: "bucket only", in: "s3://bucket", want: Location{Bucket: "bucket"}},
		{name: "trailing slash", in: "s3://bucket/", want: Location{Bucket: "bucket"}},
		{name: "double slash key", in: "s3://bucket//a/b", want: Location{Bucket: "bucket", Key: "a/b"}},
		{name: "no scheme", in: "bucket/key", wantErr: true},
		{name: "http scheme", in: "https://bucket/key", wantErr: true},
		{name: "empty bucket", in: "s3:///key", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseURI(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseURI(%q) expected error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURI(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseURI(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestJoinURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		base  string
		parts []string
		want  string
	}{
		{name: "bucket root", base: "s3://bucket", parts: []string{"output", "proj"}, want: "s3://bucket/output/proj"},
		{name: "prefix trailing slash", base: "s3://bucket/root/", parts: []string{"/a/", "b.parquet"}, want: "s3://bucket/root/a/b.parquet"},
		{name: "no parts", base: "s3://bucket/root", want: "s3://bucket/root"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := JoinURI(tt.base, tt.parts...)
			if err != nil {
				t.Fatalf("JoinURI: %v", err)
			}
			if got != tt.want {
				t.Fatalf("JoinURI(%q, %v) = %q, want %q", tt.base, tt.parts, got, tt.want)
			}
		})
	}
}
