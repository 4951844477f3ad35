// Copyright (c) 2025 EFramework Organization. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package XOrm

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/beego/beego/v2/client/orm"
	"github.com/eframework-org/GO.RECORD/XClause"
	"github.com/eframework-org/GO.UTIL/XLog"
	"github.com/eframework-org/GO.UTIL/XPrefs"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	prefsOrmSource = "Orm/Source/"
	prefsOrmAddr   = "Addr"
	prefsOrmPool   = "Pool"
	prefsOrmConn   = "Conn"
)

// ormDriver 描述了数据库类型对应的驱动名称和 SQL 方言。
type ormDriver struct {
	name    string
	dialect XClause.Dialect
}

// ormDrivers 定义了支持的数据库类型，键为小写的类型名称。
var ormDrivers = map[string]ormDriver{
	"mysql":      {name: "mysql", dialect: XClause.MySQL},
	"postgresql": {name: "postgres", dialect: XClause.PostgreSQL},
	"postgres":   {name: "postgres", dialect: XClause.PostgreSQL},
	"sqlite3":    {name: "sqlite3", dialect: XClause.SQLite},
}

// ormDialects 存储了数据库别名对应的 SQL 方言。
var ormDialects sync.Map

func init() {
	initOrm(XPrefs.Asset())
}

// initOrm 解析首选项中的数据源配置并注册数据库。
// 配置键名格式为 Orm/Source/<数据库类型>/<数据库别名>。
func initOrm(prefs XPrefs.IBase) {
	if prefs == nil {
		XLog.Panic("XOrm.Init: prefs is nil.")
		return
	}

	for _, key := range prefs.Keys() {
		if !strings.HasPrefix(key, prefsOrmSource) {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(key, prefsOrmSource), "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			XLog.Panic("XOrm.Init: invalid prefs key %v.", key)
			return
		}

		driver, exist := ormDrivers[strings.ToLower(parts[0])]
		if !exist {
			XLog.Panic("XOrm.Init: unsupported database type %v of %v.", parts[0], key)
			return
		}
		ormAlias := parts[1]

		if base, ok := prefs.Get(key).(XPrefs.IBase); ok && base != nil {
			ormAddr := base.GetString(prefsOrmAddr)
			ormPool := base.GetInt(prefsOrmPool)
			ormConn := base.GetInt(prefsOrmConn)
			if err := orm.RegisterDataBase(ormAlias, driver.name, ormAddr,
				orm.MaxIdleConnections(ormPool),
				orm.MaxOpenConnections(ormConn)); err != nil {
				XLog.Panic("XOrm.Init: register database %v failed, err: %v", ormAlias, err)
				return
			}
			ormDialects.Store(ormAlias, driver.dialect)
		} else {
			XLog.Error("XOrm.Init: invalid config for %v", key)
			continue
		}
	}
}

// RegisterDB 使用已打开的数据库连接注册别名。
// ormType 为数据库类型，如 MySQL、PostgreSQL、SQLite3。
func RegisterDB(alias, ormType string, db *sql.DB) error {
	driver, exist := ormDrivers[strings.ToLower(ormType)]
	if !exist {
		return fmt.Errorf("XOrm.RegisterDB(%v): unsupported database type %v", alias, ormType)
	}
	if err := orm.AddAliasWthDB(alias, driver.name, db); err != nil {
		XLog.Error("XOrm.RegisterDB(%v): %v", alias, err)
		return err
	}
	ormDialects.Store(alias, driver.dialect)
	return nil
}

// Dialect 返回数据库别名对应的 SQL 方言，未注册的别名使用 MySQL 方言。
func Dialect(alias string) XClause.Dialect {
	if value, ok := ormDialects.Load(alias); ok {
		return value.(XClause.Dialect)
	}
	return XClause.MySQL
}
