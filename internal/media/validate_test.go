package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bottle-claims/internal/model"
)

func upload(name, mediaType string, size int64) model.UploadItem {
	return model.UploadItem{Filename: name, MediaType: mediaType, Size: size}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	v := NewValidator(Limits{})

	tests := []struct {
		name     string
		items    []model.UploadItem
		wantMode Mode
		wantKind model.Kind
		contains []string
	}{
		{
			name:     "empty",
			wantKind: model.KindNoFilesProvided,
		},
		{
			name:     "single video",
			items:    []model.UploadItem{upload("clip.mp4", "video/mp4", 50*MB)},
			wantMode: ModeVideo,
		},
		{
			name:     "video over limit",
			items:    []model.UploadItem{upload("clip.mp4", "video/mp4", 60*MB)},
			wantKind: model.KindPayloadTooLarge,
			contains: []string{"50MB"},
		},
		{
			name:     "one image",
			items:    []model.UploadItem{upload("a.jpg", "image/jpeg", MB)},
			wantMode: ModeImages,
		},
		{
			name: "several images",
			items: []model.UploadItem{
				upload("a.jpg", "image/jpeg", MB),
				upload("b.png", "image/png", 10*MB),
				upload("c.jpg", "image/jpg", 1),
			},
			wantMode: ModeImages,
		},
		{
			name: "image over limit names file",
			items: []model.UploadItem{
				upload("a.jpg", "image/jpeg", MB),
				upload("huge.png", "image/png", 10*MB+1),
			},
			wantKind: model.KindPayloadTooLarge,
			contains: []string{"huge.png", "10MB"},
		},
		{
			name: "video mixed with image",
			items: []model.UploadItem{
				upload("clip.mp4", "video/mp4", MB),
				upload("a.jpg", "image/jpeg", MB),
			},
			wantKind: model.KindInvalidCombination,
		},
		{
			name: "two videos",
			items: []model.UploadItem{
				upload("a.mp4", "video/mp4", MB),
				upload("b.mp4", "video/mp4", MB),
			},
			wantKind: model.KindInvalidCombination,
		},
		{
			name: "unsupported names every offender",
			items: []model.UploadItem{
				upload("a.jpg", "image/jpeg", MB),
				upload("doc.pdf", "application/pdf", MB),
				upload("anim.gif", "image/gif", MB),
			},
			wantKind: model.KindUnsupportedMediaType,
			contains: []string{"doc.pdf, anim.gif"},
		},
		{
			name:     "single unsupported video type",
			items:    []model.UploadItem{upload("clip.mov", "video/quicktime", MB)},
			wantKind: model.KindUnsupportedMediaType,
			contains: []string{"clip.mov"},
		},
		{
			name:     "declared type wins over extension",
			items:    []model.UploadItem{upload("photo.mp4", "image/png", MB)},
			wantMode: ModeImages,
		},
		{
			name:     "type parameters and case are ignored",
			items:    []model.UploadItem{upload("a.jpg", "Image/JPEG; charset=binary", MB)},
			wantMode: ModeImages,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mode, err := v.Validate(tt.items)
			if tt.wantKind == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantMode, mode)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, model.KindOf(err))
			for _, s := range tt.contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestValidate_StatusCodes(t *testing.T) {
	t.Parallel()
	v := NewValidator(DefaultLimits())

	_, err := v.Validate([]model.UploadItem{upload("clip.mp4", "video/mp4", 60*MB)})
	assert.Equal(t, 413, model.AsError(err).Status)

	_, err = v.Validate([]model.UploadItem{upload("x.txt", "text/plain", 1)})
	assert.Equal(t, 415, model.AsError(err).Status)
}

func TestValidateImage(t *testing.T) {
	t.Parallel()
	v := NewValidator(Limits{MaxImageBytes: 2 * MB})

	require.NoError(t, v.ValidateImage(upload("label.png", "image/png", MB)))

	err := v.ValidateImage(upload("label.mp4", "video/mp4", MB))
	assert.Equal(t, model.KindUnsupportedMediaType, model.KindOf(err))

	err = v.ValidateImage(upload("label.png", "image/png", 3*MB))
	assert.Equal(t, model.KindPayloadTooLarge, model.KindOf(err))
	assert.Contains(t, err.Error(), "2MB")
}

func TestValidateImage_LabelFormats(t *testing.T) {
	t.Parallel()
	v := NewValidator(Limits{})

	for _, mt := range []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp", "IMAGE/WEBP; q=1"} {
		assert.NoError(t, v.ValidateImage(upload("label", mt, MB)), mt)
	}

	err := v.ValidateImage(upload("label.heic", "image/heic", MB))
	require.Error(t, err)
	assert.Equal(t, model.KindUnsupportedMediaType, model.KindOf(err))
	assert.Contains(t, err.Error(), "GIF and WebP")

	// The claim flow keeps its narrower set.
	_, err = v.Validate([]model.UploadItem{upload("a.webp", "image/webp", MB)})
	assert.Equal(t, model.KindUnsupportedMediaType, model.KindOf(err))
}

func TestFormatMB(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "50MB", formatMB(50*MB))
	assert.Equal(t, "1.5MB", formatMB(MB+MB/2))
}
