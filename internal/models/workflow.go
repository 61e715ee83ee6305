// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// WorkflowCategory is the automation platform a workflow targets.
type WorkflowCategory string

const (
	WorkflowN8N     WorkflowCategory = "n8n"
	WorkflowComfyUI WorkflowCategory = "comfyui"
	WorkflowDify    WorkflowCategory = "dify"
	WorkflowOther   WorkflowCategory = "other"
)

// WorkflowComplexity is the difficulty badge shown on a workflow card.
type WorkflowComplexity string

const (
	ComplexityBeginner     WorkflowComplexity = "beginner"
	ComplexityIntermediate WorkflowComplexity = "intermediate"
	ComplexityAdvanced     WorkflowComplexity = "advanced"
)

// MaxWorkflowImages is the number of preview image slots on the form.
const MaxWorkflowImages = 4

// WorkflowInput is the payload of the create/edit workflow form.
type WorkflowInput struct {
	Title        string             `json:"title" validate:"required,max=200"`
	Description  string             `json:"description" validate:"required,max=1000"`
	Detail       string             `json:"detail" validate:"max=20000"`
	Category     WorkflowCategory   `json:"category" validate:"oneof=n8n comfyui dify other"`
	Complexity   WorkflowComplexity `json:"complexity" validate:"oneof=beginner intermediate advanced"`
	Images       []string           `json:"images" validate:"min=1,max=4,dive,required"`
	WorkflowJSON string             `json:"workflowJson"`
	DownloadURL  string             `json:"downloadUrl" validate:"omitempty,url,max=2000"`
}

var workflowValidator = validator.New()

// Normalize trims free-text fields, drops blank image slots, and fills in
// the form's default category and complexity.
func (w *WorkflowInput) Normalize() {
	w.Title = strings.TrimSpace(w.Title)
	w.Description = strings.TrimSpace(w.Description)
	w.Detail = strings.TrimSpace(w.Detail)
	w.DownloadURL = strings.TrimSpace(w.DownloadURL)

	images := make([]string, 0, len(w.Images))
	for _, img := range w.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}
	w.Images = images

	if w.Category == "" {
		w.Category = WorkflowN8N
	}
	if w.Complexity == "" {
		w.Complexity = ComplexityBeginner
	}
}

// Validate checks a normalized form and returns the first user-facing
// error message, or "" when the input is acceptable.
func (w *WorkflowInput) Validate() string {
	err := workflowValidator.Struct(w)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "工作流数据无效"
	}

	fe := verrs[0]
	switch fe.StructField() {
	case "Title":
		if fe.Tag() == "required" {
			return "请输入工作流标题"
		}
		return "工作流标题过长"
	case "Description":
		if fe.Tag() == "required" {
			return "请输入工作流简介"
		}
		return "工作流简介过长"
	case "Detail":
		return "详细说明过长"
	case "Category":
		return "无效的工作流分类"
	case "Complexity":
		return "无效的复杂度"
	case "Images":
		if fe.Tag() == "max" {
			return "最多只能添加4张预览图片"
		}
		return "请至少添加一张预览图片"
	case "DownloadURL":
		return "下载链接无效"
	}
	return "工作流数据无效"
}
