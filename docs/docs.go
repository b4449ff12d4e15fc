// Package docs registers the OpenAPI document served by the Swagger UI.
//
// Regenerate with: swag init -g cmd/podsynth/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/podcasts": {
            "post": {
                "description": "Generates an overview and a dialogue script from the input, synthesizes every line\nwith the speaker's voice and returns the finished recording once it is assembled.\nThe call blocks for the whole run.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["podcasts"],
                "summary": "Generate a podcast",
                "parameters": [
                    {
                        "description": "Podcast request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/podcast.Request"}
                    }
                ],
                "responses": {
                    "200": {"description": "Finished podcast", "schema": {"$ref": "#/definitions/podcast.Result"}},
                    "400": {"description": "Invalid request body", "schema": {"type": "string"}},
                    "422": {"description": "Speaker roster cannot be resolved", "schema": {"type": "string"}},
                    "500": {"description": "Pipeline failure", "schema": {"type": "string"}}
                }
            }
        },
        "/podcasts/{file}": {
            "get": {
                "produces": ["audio/mpeg"],
                "tags": ["podcasts"],
                "summary": "Download a podcast",
                "parameters": [
                    {"type": "string", "description": "Recording file name", "name": "file", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Unknown recording", "schema": {"type": "string"}}
                }
            }
        }
    },
    "definitions": {
        "podcast.Speaker": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "owner": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "podcast.Utterance": {
            "type": "object",
            "properties": {
                "speaker_id": {"type": "integer"},
                "dialog": {"type": "string"}
            }
        },
        "podcast.PodcastScript": {
            "type": "object",
            "properties": {
                "podcast_transcripts": {"type": "array", "items": {"$ref": "#/definitions/podcast.Utterance"}}
            }
        },
        "podcast.Request": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "input": {"type": "string"},
                "pod_users": {"type": "array", "items": {"$ref": "#/definitions/podcast.Speaker"}},
                "output_language": {"type": "string"},
                "usetime": {"type": "string"},
                "story": {"type": "boolean"}
            }
        },
        "podcast.Result": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "output_audio_filepath": {"type": "string"},
                "audio_duration": {"type": "string"},
                "title": {"type": "string"},
                "tags": {"type": "string"},
                "overview_content": {"type": "string"},
                "podcast_script": {"$ref": "#/definitions/podcast.PodcastScript"},
                "pod_users": {"type": "array", "items": {"$ref": "#/definitions/podcast.Speaker"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "podsynth API",
	Description:      "Turns source material into a multi-speaker podcast recording.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
