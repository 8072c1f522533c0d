package service

import (
	"io"

	"Memeologia/internal/pkg"

	"github.com/gabriel-vasile/mimetype"
)

// 允许上传的图片类型 -> 文件扩展名
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Image 待上传的图片，ContentType 按文件内容识别
type Image struct {
	Body        io.ReadSeeker
	ContentType string
	Ext         string
}

// DetectImage 嗅探内容类型，只接受 jpeg/png/gif，读完后把游标复位
func DetectImage(body io.ReadSeeker) (*Image, error) {
	mt, err := mimetype.DetectReader(body)
	if err != nil {
		return nil, pkg.Validation("cannot read uploaded file")
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	ext, ok := imageExtensions[mt.String()]
	if !ok {
		return nil, pkg.Validation("unsupported image type: " + mt.String())
	}
	return &Image{Body: body, ContentType: mt.String(), Ext: ext}, nil
}
