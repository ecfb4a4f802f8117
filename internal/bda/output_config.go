package bda

import (
	bdatypes "github.com/aws/aws-sdk-go-v2/service/bedrockdataautomation/types"
)

var enabled = bdatypes.State("ENABLED")

// standardOutputConfiguration is the extraction profile every created
// project gets: text and summaries for documents, images, video and audio.
func standardOutputConfiguration() *bdatypes.StandardOutputConfiguration {
	return &bdatypes.StandardOutputConfiguration{
		Document: &bdatypes.DocumentStandardOutputConfiguration{
			Extraction: &bdatypes.DocumentStandardExtraction{
				Granularity: &bdatypes.DocumentExtractionGranularity{
					Types: []bdatypes.DocumentExtractionGranularityType{
						bdatypes.DocumentExtractionGranularityType("PAGE"),
						bdatypes.DocumentExtractionGranularityType("ELEMENT"),
					},
				},
				BoundingBox: &bdatypes.DocumentBoundingBox{State: enabled},
			},
			GenerativeField: &bdatypes.DocumentStandardGenerativeField{State: enabled},
			OutputFormat: &bdatypes.DocumentOutputFormat{
				TextFormat: &bdatypes.DocumentOutputTextFormat{
					Types: []bdatypes.DocumentOutputTextFormatType{
						bdatypes.DocumentOutputTextFormatType("MARKDOWN"),
					},
				},
				AdditionalFileFormat: &bdatypes.DocumentOutputAdditionalFileFormat{State: enabled},
			},
		},
		Image: &bdatypes.ImageStandardOutputConfiguration{
			Extraction: &bdatypes.ImageStandardExtraction{
				Category: &bdatypes.ImageExtractionCategory{
					State: enabled,
					Types: []bdatypes.ImageExtractionCategoryType{
						bdatypes.ImageExtractionCategoryType("TEXT_DETECTION"),
					},
				},
				BoundingBox: &bdatypes.ImageBoundingBox{State: enabled},
			},
			GenerativeField: &bdatypes.ImageStandardGenerativeField{
				State: enabled,
				Types: []bdatypes.ImageStandardGenerativeFieldType{
					bdatypes.ImageStandardGenerativeFieldType("IMAGE_SUMMARY"),
				},
			},
		},
		Video: &bdatypes.VideoStandardOutputConfiguration{
			Extraction: &bdatypes.VideoStandardExtraction{
				Category: &bdatypes.VideoExtractionCategory{
					State: enabled,
					Types: []bdatypes.VideoExtractionCategoryType{
						bdatypes.VideoExtractionCategoryType("TRANSCRIPT"),
					},
				},
				BoundingBox: &bdatypes.VideoBoundingBox{State: enabled},
			},
			GenerativeField: &bdatypes.VideoStandardGenerativeField{
				State: enabled,
				Types: []bdatypes.VideoStandardGenerativeFieldType{
					bdatypes.VideoStandardGenerativeFieldType("VIDEO_SUMMARY"),
				},
			},
		},
		Audio: &bdatypes.AudioStandardOutputConfiguration{
			Extraction: &bdatypes.AudioStandardExtraction{
				Category: &bdatypes.AudioExtractionCategory{
					State: enabled,
					Types: []bdatypes.AudioExtractionCategoryType{
						bdatypes.AudioExtractionCategoryType("TRANSCRIPT"),
					},
				},
			},
			GenerativeField: &bdatypes.AudioStandardGenerativeField{
				State: enabled,
				Types: []bdatypes.AudioStandardGenerativeFieldType{
					bdatypes.AudioStandardGenerativeFieldType("AUDIO_SUMMARY"),
				},
			},
		},
	}
}
