package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BeforeSave не использует tx, поэтому достаточно nil
var mockTx *gorm.DB = nil

func TestAdmin_BeforeSave_HashesPassword(t *testing.T) {
	plainPassword := "mySecretPassword123"
	admin := &Admin{Username: "root", Password: plainPassword}

	err := admin.BeforeSave(mockTx)

	require.NoError(t, err, "BeforeSave не должен возвращать ошибку")
	assert.NotEqual(t, plainPassword, admin.Password, "Пароль должен быть изменён после хеширования")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(plainPassword)))
}

func TestAdmin_BeforeSave_SkipsAlreadyHashedPassword(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("alreadyHashed"), bcrypt.MinCost)
	require.NoError(t, err)

	admin := &Admin{Username: "root", Password: string(hashedPassword)}
	originalHash := admin.Password

	require.NoError(t, admin.BeforeSave(mockTx))
	assert.Equal(t, originalHash, admin.Password, "Уже хешированный пароль не должен изменяться")
}

func TestAdmin_CheckPassword(t *testing.T) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("correctPassword123"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &Admin{Password: string(hashedPassword)}

	assert.True(t, admin.CheckPassword("correctPassword123"))
	assert.False(t, admin.CheckPassword("wrongPassword456"))
	assert.False(t, admin.CheckPassword(""))
}

func TestInvalidToken_IsTokenInvalidAt(t *testing.T) {
	now := time.Now()
	it := &InvalidToken{AdminID: 1, InvalidationTime: now}

	assert.True(t, it.IsTokenInvalidAt(now.Add(-time.Minute)), "токен до выхода недействителен")
	assert.True(t, it.IsTokenInvalidAt(now), "токен в момент выхода недействителен")
	assert.False(t, it.IsTokenInvalidAt(now.Add(time.Millisecond)), "новый вход после выхода действителен")
}

func TestTableNames(t *testing.T) {
	assert.Equal(t, "users", User{}.TableName())
	assert.Equal(t, "test_records", TestRecord{}.TableName())
	assert.Equal(t, "test_results", TestResult{}.TableName())
	assert.Equal(t, "user_ips", UserIP{}.TableName())
	assert.Equal(t, "messages", Message{}.TableName())
	assert.Equal(t, "message_reactions", MessageReaction{}.TableName())
	assert.Equal(t, "report_images", ReportImage{}.TableName())
	assert.Equal(t, "admins", Admin{}.TableName())
}
