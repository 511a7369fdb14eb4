package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "raw/464212183/ephys.nwb", NWBObjectKey(464212183))
	assert.Equal(t, "swc/464212183.swc", SWCObjectKey(464212183))
	assert.Equal(t, "markers/464212183.csv", MarkerObjectKey(464212183))
}

func TestValidateContentType(t *testing.T) {
	s := &s3Store{}

	assert.NoError(t, s.validateContentType(ContentTypeNWB))
	assert.NoError(t, s.validateContentType(ContentTypeSWC))
	assert.NoError(t, s.validateContentType(ContentTypeMarkers))
	assert.NoError(t, s.validateContentType("application/octet-stream"))
	assert.Error(t, s.validateContentType("audio/wav"))
}

func TestNewS3StoreRequiresBucket(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.ErrorContains(t, err, "S3_BUCKET")
}
