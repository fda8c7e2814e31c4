package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// ErrorsTestSuite 错误包测试套件
type ErrorsTestSuite struct {
	suite.Suite
}

// 测试创建新错误
func (suite *ErrorsTestSuite) TestNew() {
	err := New(ErrInvalidFrame)
	suite.NotNil(err)
	suite.Equal(ErrInvalidFrame, err.Code)
	suite.Equal("无效的方向码", err.Message)
	suite.Empty(err.Details)

	// 多个详情
	err = New(ErrSerialPortOpen, "打开失败", "设备: /dev/ttyS0")
	suite.Equal("打开失败; 设备: /dev/ttyS0", err.Details)
}

// 测试格式化错误创建
func (suite *ErrorsTestSuite) TestNewf() {
	err := Newf(ErrInvalidFrame, "首字符 %q 不是数字", 'x')
	suite.Equal(ErrInvalidFrame, err.Code)
	suite.Equal("首字符 'x' 不是数字", err.Details)
}

// 测试错误包装
func (suite *ErrorsTestSuite) TestWrap() {
	originalErr := errors.New("EOF")
	wrappedErr := Wrap(originalErr, ErrSerialPortRead)
	suite.Equal(ErrSerialPortRead, wrappedErr.Code)
	suite.Equal("EOF", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Cause)

	suite.Nil(Wrap(nil, ErrUnknown))

	// 包装已有的AppError，保留原始错误码
	appErr := New(ErrEmptyFrame, "长度为0")
	wrappedAppErr := Wrap(appErr, ErrSerialPortRead, "额外信息")
	suite.Equal(ErrEmptyFrame, wrappedAppErr.Code)
	suite.Contains(wrappedAppErr.Details, "额外信息")
}

// 测试格式化错误包装
func (suite *ErrorsTestSuite) TestWrapf() {
	originalErr := errors.New("no such file or directory")
	wrappedErr := Wrapf(originalErr, ErrSerialPortOpen, "串口 %s", "/dev/ttyS0")
	suite.Equal(ErrSerialPortOpen, wrappedErr.Code)
	suite.Equal("串口 /dev/ttyS0", wrappedErr.Details)
	suite.Equal(originalErr, wrappedErr.Unwrap())
}

// 测试错误码判断（含fmt.Errorf包装链）
func (suite *ErrorsTestSuite) TestIs() {
	err := New(ErrCommandFailed)
	suite.True(Is(err, ErrCommandFailed))
	suite.False(Is(err, ErrCommandNotFound))
	suite.False(Is(nil, ErrCommandFailed))

	chained := fmt.Errorf("step: %w", err)
	suite.True(Is(chained, ErrCommandFailed))
	suite.False(Is(errors.New("标准错误"), ErrUnknown))
}

// 测试获取错误码
func (suite *ErrorsTestSuite) TestGetCode() {
	suite.Equal(ErrConfigLoad, GetCode(New(ErrConfigLoad)))
	suite.Equal(ErrUnknown, GetCode(errors.New("标准错误")))
	suite.Equal(ErrorCode(0), GetCode(nil))
}

// 测试错误消息
func (suite *ErrorsTestSuite) TestError() {
	err := &AppError{Code: ErrEmptyFrame, Message: "空帧"}
	suite.Equal("[3100] 空帧", err.Error())

	err.Details = "收到 \"\\n\""
	suite.Equal("[3100] 空帧: 收到 \"\\n\"", err.Error())
}

// 测试致命错误判断
func (suite *ErrorsTestSuite) TestIsCritical() {
	for _, code := range []ErrorCode{
		ErrSerialPortOpen,
		ErrSerialPortRead,
		ErrEmptyFrame,
		ErrInvalidFrame,
		ErrConfigLoad,
		ErrConfigParse,
		ErrConfigValidate,
	} {
		suite.True(IsCritical(New(code)), "错误码 %d 应该是致命错误", code)
	}

	// 外部命令失败不是致命错误
	for _, code := range []ErrorCode{
		ErrCommandFailed,
		ErrCommandNotFound,
		ErrUnknown,
	} {
		suite.False(IsCritical(New(code)), "错误码 %d 不应该是致命错误", code)
	}

	suite.False(IsCritical(nil))
}

// 测试调用栈捕获
func (suite *ErrorsTestSuite) TestStackCapture() {
	err := New(ErrUnknown)
	suite.NotEmpty(err.Stack)
	suite.NotEmpty(err.GetStack())

	// 经 fmt.Errorf 包装后仍可取到调用栈
	suite.Equal(err.GetStack(), StackOf(fmt.Errorf("run: %w", err)))
	suite.Empty(StackOf(errors.New("标准错误")))
	suite.Empty(StackOf(nil))
}

// 测试未知错误码
func (suite *ErrorsTestSuite) TestUnknownErrorCode() {
	err := New(ErrorCode(99999))
	suite.Equal(ErrorCode(99999), err.Code)
	suite.Equal("未知错误", err.Message)
}

func TestErrorsSuite(t *testing.T) {
	suite.Run(t, new(ErrorsTestSuite))
}
