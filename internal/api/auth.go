package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"
	"strings"

	"learn_with_me_client/internal/model"

	"github.com/go-resty/resty/v2"
)

type RegisterInput struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Role     model.UserRole `json:"role"`
}

// Upload 随注册一起提交的头像文件
type Upload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

func (c *Client) Login(ctx context.Context, email, password string) (*model.AuthTokens, error) {
	var data struct {
		Login *model.AuthTokens `json:"login"`
	}
	err := c.execute(ctx, operation{
		name:  "Login",
		query: loginMutation,
		vars:  map[string]interface{}{"email": email, "password": password},
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.Login == nil || data.Login.AccessToken == "" {
		return nil, &Error{Kind: KindUnauthorized, Op: "Login", Message: "login returned no token"}
	}
	return data.Login, nil
}

// Register 带头像时按 GraphQL multipart 规范提交（operations / map / 0）
func (c *Client) Register(ctx context.Context, input RegisterInput, image *Upload) (*model.User, error) {
	if input.Role == "" {
		input.Role = model.Student
	}

	op := operation{
		name:  "Signup",
		query: signupMutation,
		vars:  map[string]interface{}{"input": input},
	}

	if image != nil && image.Reader != nil {
		vars := map[string]interface{}{"input": input, "profileImage": nil}
		operations, err := json.Marshal(graphQLRequest{OperationName: op.name, Query: op.query, Variables: vars})
		if err != nil {
			return nil, err
		}
		filename := path.Base(image.Filename)
		if filename == "" || filename == "." || filename == "/" {
			filename = "photo.jpg"
		}
		contentType := image.ContentType
		if contentType == "" {
			contentType = "image/jpeg"
		}

		op.prepare = func(req *resty.Request) {
			req.SetHeader("x-apollo-operation-name", op.name).
				SetHeader("apollo-require-preflight", "true").
				SetMultipartFields(
					&resty.MultipartField{Param: "operations", ContentType: "application/json", Reader: bytes.NewReader(operations)},
					&resty.MultipartField{Param: "map", ContentType: "application/json", Reader: strings.NewReader(`{"0":["variables.profileImage"]}`)},
					&resty.MultipartField{Param: "0", FileName: filename, ContentType: contentType, Reader: image.Reader},
				)
		}
	}

	var data struct {
		Signup *model.User `json:"signup"`
	}
	if err := c.execute(ctx, op, &data); err != nil {
		return nil, err
	}
	return data.Signup, nil
}
