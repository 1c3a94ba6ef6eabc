package handler

import (
	"errors"
	"net/http"

	"github.com/aurafolio/internal/service"
	"github.com/gin-gonic/gin"
)

type skillTechnologyRequest struct {
	TechnologyID uint   `json:"technologyId"`
	Relationship string `json:"relationship"`
	Strength     int    `json:"strength"`
}

type skillEducationRequest struct {
	EducationID       uint   `json:"educationId"`
	Context           string `json:"context"`
	ProficiencyGained int    `json:"proficiencyGained"`
}

// LinkSkillTechnology 关联技能与技术，重复关联时更新关系与强度。
func (a *API) LinkSkillTechnology(c *gin.Context) {
	skillID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的技能ID")
		return
	}
	var req skillTechnologyRequest
	if !bindJSON(c, &req, "关联数据不正确") {
		return
	}

	link, err := a.profiles.LinkSkillTechnology(skillID, req.TechnologyID, req.Relationship, req.Strength)
	if err != nil {
		respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "技能与技术已关联",
		"link": gin.H{
			"skillId":      link.SkillID,
			"technologyId": link.TechnologyID,
			"relationship": link.Relationship,
			"strength":     link.Strength,
		},
	})
}

// LinkSkillEducation 关联技能与教育经历。
func (a *API) LinkSkillEducation(c *gin.Context) {
	skillID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的技能ID")
		return
	}
	var req skillEducationRequest
	if !bindJSON(c, &req, "关联数据不正确") {
		return
	}

	link, err := a.profiles.LinkSkillEducation(skillID, req.EducationID, req.Context, req.ProficiencyGained)
	if err != nil {
		respondProfileError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "技能与教育经历已关联",
		"link": gin.H{
			"skillId":           link.SkillID,
			"educationId":       link.EducationID,
			"context":           link.Context,
			"proficiencyGained": link.ProficiencyGained,
		},
	})
}

func respondProfileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSkillNotFound):
		respondError(c, http.StatusNotFound, "技能不存在")
	case errors.Is(err, service.ErrTechnologyNotFound):
		respondError(c, http.StatusNotFound, "技术不存在")
	case errors.Is(err, service.ErrEducationNotFound):
		respondError(c, http.StatusNotFound, "教育经历不存在")
	default:
		c.Error(err)
		respondError(c, http.StatusInternalServerError, "保存关联失败")
	}
}
