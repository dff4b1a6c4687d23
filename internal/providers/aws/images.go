package aws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"patchinspect/internal/models"
)

// fixedImageFilters narrow every catalog query to x86_64 HVM EBS gp2 machine images.
var fixedImageFilters = []types.Filter{
	{Name: aws.String("architecture"), Values: []string{"x86_64"}},
	{Name: aws.String("virtualization-type"), Values: []string{"hvm"}},
	{Name: aws.String("image-type"), Values: []string{"machine"}},
	{Name: aws.String("root-device-type"), Values: []string{"ebs"}},
	{Name: aws.String("block-device-mapping.volume-type"), Values: []string{"gp2"}},
}

// ImageService queries the AMI catalog.
type ImageService struct {
	client EC2ClientAPI
}

// NewImageServiceWithClient creates a new ImageService with a provided client
func NewImageServiceWithClient(client EC2ClientAPI) *ImageService {
	return &ImageService{client: client}
}

// ListImages returns every image matching the spec's name pattern and owner
// in catalog order. Images with an unparseable creation date are skipped.
func (s *ImageService) ListImages(ctx context.Context, spec models.ImageSpec) ([]models.CandidateImage, error) {
	filters := make([]types.Filter, 0, len(fixedImageFilters)+2)
	filters = append(filters, fixedImageFilters...)
	filters = append(filters,
		types.Filter{Name: aws.String("name"), Values: []string{spec.NamePattern}},
		types.Filter{Name: aws.String("owner-id"), Values: []string{spec.Owner}},
	)

	input := &ec2.DescribeImagesInput{Filters: filters}

	var images []models.CandidateImage
	for {
		resp, err := s.client.DescribeImages(ctx, input)
		if err != nil {
			return nil, ClassifyAWSError(err, ImageResourceType, spec.NamePattern)
		}

		for _, img := range resp.Images {
			created, err := time.Parse(time.RFC3339, aws.ToString(img.CreationDate))
			if err != nil {
				continue
			}
			images = append(images, models.CandidateImage{
				ImageID:      aws.ToString(img.ImageId),
				CreationDate: created,
			})
		}

		if aws.ToString(resp.NextToken) == "" {
			return images, nil
		}
		input.NextToken = resp.NextToken
	}
}
