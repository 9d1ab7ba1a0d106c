package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/rtboot/internal/model"
)

func TestRecipeValidate(t *testing.T) {
	tests := map[string]struct {
		recipe func() model.Recipe
		expErr bool
	}{
		"The default recipe should be valid.": {
			recipe: model.DefaultRecipe,
			expErr: false,
		},

		"Missing name should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.Name = ""
				return r
			},
			expErr: true,
		},

		"Missing base image should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.BaseImage = ""
				return r
			},
			expErr: true,
		},

		"Missing the unbuffered flag should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				delete(r.Env, model.EnvUnbuffered)
				return r
			},
			expErr: true,
		},

		"Missing the bytecode flag should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				delete(r.Env, model.EnvNoBytecode)
				return r
			},
			expErr: true,
		},

		"An empty unbuffered flag should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.Env[model.EnvUnbuffered] = ""
				return r
			},
			expErr: true,
		},

		"An empty bytecode flag should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.Env[model.EnvNoBytecode] = ""
				return r
			},
			expErr: true,
		},

		"An env value with a new line should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.Env["EXTRA"] = "a\nRUN echo injected"
				return r
			},
			expErr: true,
		},

		"An env value with tabs and an empty env value should be valid.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.Env["TABBED"] = "a\tb"
				r.Env["EMPTY"] = ""
				return r
			},
		},

		"An invalid env key should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.Env["1INVALID"] = "x"
				return r
			},
			expErr: true,
		},

		"A relative working dir should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.WorkingDir = "app"
				return r
			},
			expErr: true,
		},

		"Missing context dir should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.ContextDir = ""
				return r
			},
			expErr: true,
		},

		"A command with a single token should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.Command = []string{"python"}
				return r
			},
			expErr: true,
		},

		"A command with an empty token should fail.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.Command = []string{"python", ""}
				return r
			},
			expErr: true,
		},

		"Empty package sets should be valid.": {
			recipe: func() model.Recipe {
				r := model.DefaultRecipe()
				r.SystemPackages = nil
				r.ExtensionPackages = nil
				return r
			},
			expErr: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			err := test.recipe().Validate()

			if test.expErr {
				assert.Error(err)
				assert.True(errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(err)
			}
		})
	}
}

func TestDefaultRecipe(t *testing.T) {
	assert := assert.New(t)

	r := model.DefaultRecipe()

	assert.Equal("python:3.12-slim", r.BaseImage)
	assert.Equal([]string{"python3-tk", "tk", "libx11-6", "x11-apps"}, r.SystemPackages)
	assert.Equal([]string{"ttkbootstrap"}, r.ExtensionPackages)
	assert.Equal(map[string]string{"PYTHONDONTWRITEBYTECODE": "1", "PYTHONUNBUFFERED": "1"}, r.Env)
	assert.Equal("/app", r.WorkingDir)
	assert.Equal([]string{"python", "main.py"}, r.Command)
}
