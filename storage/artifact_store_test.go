package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"pipeline-analytics/core/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjectGetter struct {
	calls   int
	lastKey string
	body    []byte
	length  *int64
	err     error
}

func (f *fakeObjectGetter) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	f.lastKey = aws.ToString(params.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(f.body)),
		ContentLength: f.length,
	}, nil
}

func TestObjectPath(t *testing.T) {
	store := NewStore(&fakeObjectGetter{}, "nxf-workdir", "runs")

	path, err := store.ObjectPath("r017n26s", models.ArtifactTimeline)
	require.NoError(t, err)
	assert.Equal(t, "runs/r017n26s/timeline.html", path)

	// The path is the same whether or not the object exists.
	again, err := store.ObjectPath("r017n26s", models.ArtifactTimeline)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	noPrefix := NewStore(&fakeObjectGetter{}, "nxf-workdir", "")
	path, err = noPrefix.ObjectPath("r017n26s", models.ArtifactTrace)
	require.NoError(t, err)
	assert.Equal(t, "r017n26s/trace.txt", path)
}

func TestValidRunName(t *testing.T) {
	assert.True(t, ValidRunName("r017n26s"))
	assert.True(t, ValidRunName("brave_curie.2"))
	assert.False(t, ValidRunName("../other-run"))
	assert.False(t, ValidRunName("bad$name"))
	assert.False(t, ValidRunName(""))
}

func TestFetchRejectsBadRunName(t *testing.T) {
	getter := &fakeObjectGetter{}
	store := NewStore(getter, "nxf-workdir", "")

	_, err := store.Fetch(context.Background(), "../other-run", models.ArtifactReport)
	assert.Error(t, err)
	// Validation failed before any remote call.
	assert.Equal(t, 0, getter.calls)
}

func TestFetch(t *testing.T) {
	getter := &fakeObjectGetter{body: []byte("<html>report</html>")}
	store := NewStore(getter, "nxf-workdir", "runs")

	data, err := store.Fetch(context.Background(), "brave_curie", models.ArtifactReport)
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>report</html>"), data)
	assert.Equal(t, "runs/brave_curie/report.html", getter.lastKey)
}

func TestFetchErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ArtifactErrorKind
	}{
		{
			name: "typed missing key",
			err:  &types.NoSuchKey{},
			want: ArtifactNotFound,
		},
		{
			name: "not found code",
			err:  &smithy.GenericAPIError{Code: "NotFound", Message: "not found"},
			want: ArtifactNotFound,
		},
		{
			name: "access denied code",
			err:  &smithy.GenericAPIError{Code: "AccessDenied", Message: "forbidden"},
			want: ArtifactAccessDenied,
		},
		{
			name: "other api error",
			err:  &smithy.GenericAPIError{Code: "SlowDown", Message: "throttled"},
			want: ArtifactConnectionFailed,
		},
		{
			name: "plain transport error",
			err:  errors.New("dial tcp: i/o timeout"),
			want: ArtifactConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(&fakeObjectGetter{err: tt.err}, "nxf-workdir", "")

			_, err := store.Fetch(context.Background(), "brave_curie", models.ArtifactTrace)

			var aerr *ArtifactError
			require.ErrorAs(t, err, &aerr)
			assert.Equal(t, tt.want, aerr.Kind)
			assert.Equal(t, "nxf-workdir/brave_curie/trace.txt", aerr.Path)
		})
	}
}

func TestFetchSizeGuard(t *testing.T) {
	tooBig := int64(MaxArtifactBytes + 1)
	store := NewStore(&fakeObjectGetter{body: []byte("x"), length: &tooBig}, "nxf-workdir", "")

	_, err := store.Fetch(context.Background(), "brave_curie", models.ArtifactReport)

	var aerr *ArtifactError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, ArtifactTooLarge, aerr.Kind)
}
