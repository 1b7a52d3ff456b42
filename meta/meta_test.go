package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ormkit/errors"
)

func userModel() *ModelMeta {
	return &ModelMeta{
		Name: "User",
		Fields: []FieldMeta{
			{Name: "id", Kind: KindScalar, Type: "String", IsUnique: true},
			{Name: "email", Kind: KindScalar, Type: "String", IsUnique: true},
			{Name: "profile", Kind: KindScalar, Type: "Json"},
			{Name: "tags", Kind: KindScalar, Type: "String", IsList: true},
			{Name: "roles", Kind: KindObject, Type: "Role", IsList: true, RelationName: "UserRoles"},
			{Name: "company", Kind: KindObject, Type: "Company", RelationName: "CompanyUsers"},
		},
		UniqueIndexes: [][]string{{"firstName", "lastName"}},
	}
}

func TestFieldMeta(t *testing.T) {
	m := userModel()

	profile, ok := m.Field("profile")
	require.True(t, ok)
	assert.True(t, profile.IsJSON())
	assert.False(t, profile.IsRelation())

	tags, _ := m.Field("tags")
	assert.True(t, tags.IsScalarList())
	assert.False(t, tags.IsJSON())

	roles, _ := m.Field("roles")
	assert.True(t, roles.IsRelation())
	assert.False(t, roles.IsScalarList())

	_, ok = m.Field("missing")
	assert.False(t, ok)

	assert.Equal(t, "id", m.PrimaryKeyField())
	m.PrimaryKey = "uuid"
	assert.Equal(t, "uuid", m.PrimaryKeyField())
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider().Register(userModel())

	t.Run("未注册模型返回配置错误", func(t *testing.T) {
		_, err := p.Model("Ghost")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCodeModelNotConfigured))
	})

	t.Run("唯一约束包含单字段与复合索引", func(t *testing.T) {
		groups, err := p.UniqueConstraints("User")
		require.NoError(t, err)
		assert.Contains(t, groups, []string{"id"})
		assert.Contains(t, groups, []string{"email"})
		assert.Contains(t, groups, []string{"firstName", "lastName"})
	})

	t.Run("隐式关联无连接表", func(t *testing.T) {
		jt, err := p.JoinTable("User", "roles")
		require.NoError(t, err)
		assert.Nil(t, jt)
	})

	t.Run("显式关联返回连接表描述", func(t *testing.T) {
		p.RegisterJoinTable("User", "roles", &JoinTableDescriptor{
			JoinTableName: "user_roles",
			SourceField:   "user_id",
			TargetField:   "role_id",
		})
		jt, err := p.JoinTable("User", "roles")
		require.NoError(t, err)
		require.NotNil(t, jt)
		assert.Equal(t, "user_roles", jt.JoinTableName)
	})
}

// countingProvider 统计底层查询次数，验证缓存生效
type countingProvider struct {
	inner *StaticProvider
	calls int
}

func (c *countingProvider) Model(name string) (*ModelMeta, error) {
	c.calls++
	return c.inner.Model(name)
}

func (c *countingProvider) UniqueConstraints(name string) ([][]string, error) {
	c.calls++
	return c.inner.UniqueConstraints(name)
}

func (c *countingProvider) JoinTable(modelName, fieldName string) (*JoinTableDescriptor, error) {
	c.calls++
	return c.inner.JoinTable(modelName, fieldName)
}

func TestRegistry(t *testing.T) {
	source := &countingProvider{inner: NewStaticProvider().Register(userModel())}
	reg := NewRegistry(source, RegistryConfig{})

	t.Run("模型查询命中缓存", func(t *testing.T) {
		m1, err := reg.Model("User")
		require.NoError(t, err)
		m2, err := reg.Model("User")
		require.NoError(t, err)
		assert.Same(t, m1, m2)
		assert.Equal(t, 1, source.calls)
	})

	t.Run("错误不被缓存", func(t *testing.T) {
		before := source.calls
		_, err := reg.Model("Ghost")
		require.Error(t, err)
		_, err = reg.Model("Ghost")
		require.Error(t, err)
		assert.Equal(t, before+2, source.calls)
	})

	t.Run("隐式关联的 nil 结果也缓存", func(t *testing.T) {
		before := source.calls
		jt, err := reg.JoinTable("User", "roles")
		require.NoError(t, err)
		assert.Nil(t, jt)
		jt, err = reg.JoinTable("User", "roles")
		require.NoError(t, err)
		assert.Nil(t, jt)
		assert.Equal(t, before+1, source.calls)
	})

	t.Run("失效后重新查询", func(t *testing.T) {
		before := source.calls
		reg.Invalidate("User")
		_, err := reg.Model("User")
		require.NoError(t, err)
		assert.Equal(t, before+1, source.calls)
	})
}
