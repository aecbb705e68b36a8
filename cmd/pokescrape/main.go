// Package main は、pokescrape コマンドのエントリーポイントです。
//
// 図鑑（全国図鑑番号と名前の対応表）を構築し、設定された各サイトから
// ポケモンごとの画像を収集して <出力先>/<サイト>/<番号>/ に保存します。
//
//	pokescrape run
//	pokescrape run --site pokemondb --start 1 --end 9
//	pokescrape discover zerochan 25
package main

func main() {
	Execute()
}
